package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"discord-vanish/command"
	"discord-vanish/config"
	"discord-vanish/database"
	"discord-vanish/search"
	"discord-vanish/utils"
	"discord-vanish/vanish"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the bot's state.
type Bot struct {
	Session *discordgo.Session
	Store   *database.JobStore
	Fetcher *search.Fetcher
	Engine  *vanish.Engine
}

// NewBot creates and initializes a new Bot instance: config, session, job
// store, search client and the vanish engine with any persisted jobs
// restored as paused.
func NewBot() (*Bot, error) {
	config.LoadConfig()

	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}
	userToken := viper.GetString("USER_TOKEN")
	if userToken == "" {
		return nil, fmt.Errorf("no user token provided for the search API")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	store, err := database.NewJobStore(viper.GetString("vanish.dbPath"))
	if err != nil {
		return nil, fmt.Errorf("error opening job store: %w", err)
	}

	client := search.NewClient(userToken)
	fetcher := search.NewFetcher(client, viper.GetInt("vanish.batchSize"), viper.GetDuration("vanish.searchDelay"))

	opts := vanish.Options{
		ChunkSize:         viper.GetInt("vanish.chunkSize"),
		DeleteDelay:       viper.GetDuration("vanish.deleteDelay"),
		IndexRefreshDelay: viper.GetDuration("vanish.indexRefreshDelay"),
		SaveInterval:      viper.GetDuration("vanish.saveInterval"),
		StatusInterval:    viper.GetDuration("vanish.statusInterval"),
	}
	engine := vanish.NewEngine(fetcher, vanish.NewExecutor(dg), store, vanish.NewStatusNotifier(dg), opts)

	records, err := store.LoadAll()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("error loading persisted jobs: %w", err)
	}
	engine.Restore(records)

	return &Bot{
		Session: dg,
		Store:   store,
		Fetcher: fetcher,
		Engine:  engine,
	}, nil
}

// Start opens the bot's session, registers handlers and slash commands, and
// starts the scheduler.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	utils.InitLogger(b.Session)

	for _, def := range command.GetCommandDefinitions() {
		if _, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", def); err != nil {
			log.Printf("Cannot create '%v' command: %v", def.Name, err)
		}
	}

	startScheduler(b.Engine)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully shuts the bot down. Running jobs are paused and their
// state flushed to the store before anything else closes, so they can be
// resumed after the next start.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Engine != nil {
		b.Engine.Shutdown()
	}
	if b.Store != nil {
		b.Store.Close()
	}
	if b.Session != nil {
		b.Session.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot)) {
	bot, err := NewBot()
	if err != nil {
		log.Fatalf("Error initializing bot: %v", err)
	}

	if err := bot.Start(registerHandlers); err != nil {
		log.Fatalf("Error starting bot: %v", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
}
