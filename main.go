package main

import (
	"sunnybot/internal/bot"
)

func main() {
	bot.Run()
}
