// fa-cli 运维与排查工具：评分、估价、手动跟进、迁移和创建管理员
package main

import (
	"log"
	"os"

	"foreclosure-assist/cmd/fa-cli/internal/commands"
)

func main() {
	log.SetOutput(os.Stderr)
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
