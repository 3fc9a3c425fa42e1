package main

import (
	"discord-vanish/bot"
	"discord-vanish/handlers"
)

func main() {
	bot.Run(handlers.Register)
}
