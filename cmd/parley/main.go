package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/api"
	"github.com/mbeoliero/parley/internal/bridge"
	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/entity"
	"github.com/mbeoliero/parley/internal/localstate"
	"github.com/mbeoliero/parley/internal/notify"
	"github.com/mbeoliero/parley/internal/push"
	"github.com/mbeoliero/parley/internal/search"
	"github.com/mbeoliero/parley/internal/selection"
	"github.com/mbeoliero/parley/internal/store"
	"github.com/mbeoliero/parley/internal/thread"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "config loaded: api=%s, push=%s", cfg.Api.BaseURL, cfg.Push.URL)

	// Open local state
	state, err := localstate.Open(cfg.State.Path)
	if err != nil {
		log.CtxError(ctx, "failed to open local state: %v", err)
		panic(err)
	}
	defer state.Close()

	// REST collaborator
	client, err := api.NewClient(cfg.Api.BaseURL,
		api.WithToken(cfg.Api.Token),
		api.WithTimeouts(cfg.Api.DialTimeout, cfg.Api.ReadTimeout, cfg.Api.WriteTimeout),
	)
	if err != nil {
		log.CtxError(ctx, "failed to create api client: %v", err)
		panic(err)
	}

	// Stores
	convs := store.NewConversationStore()
	sel := selection.NewController(convs, state)
	cache := thread.NewCache(client)
	sender := thread.NewSender(client, cache, convs, sel)

	// Search results land here; the driver loop reads them on /pick.
	results := &searchResults{}
	debouncer := search.NewDebouncer(client, cfg.Push.CurrentUserId, cfg.Search.DebounceWindow,
		func(users []entity.Participant) {
			results.set(users)
			for i, u := range users {
				fmt.Printf("  [%d] %s (@%s)\n", i, u.DisplayName, u.Username)
			}
		})
	defer debouncer.Close()

	// Initial snapshot: load the list, restore the persisted selection,
	// then load the thread for whatever got restored.
	conversations, err := client.GetConversations(ctx)
	if err != nil {
		log.CtxWarn(ctx, "initial conversation load failed: %v", err)
	} else {
		convs.Load(conversations)
		sel.Restore(ctx)
		if pointer := sel.Current(); pointer.IsSet() {
			if err := cache.LoadFor(ctx, pointer); err != nil {
				log.CtxWarn(ctx, "initial thread load failed: %v", err)
			}
		}
	}
	log.CtxInfo(ctx, "conversations loaded: count=%d", convs.Len())

	// Push channel + bridge
	channel, err := push.Dial(ctx, cfg.Push.URL, cfg.Push.EventBuffer)
	if err != nil {
		log.CtxError(ctx, "failed to dial push channel: %v", err)
		panic(err)
	}

	var notifier bridge.Notifier = notify.NopNotifier{}
	if cfg.Notify.Sound {
		notifier = notify.SoundNotifier{}
	}

	b := bridge.New(channel, convs, cache, client, notifier, cfg.Push.CurrentUserId)
	defer b.Close()
	go func() {
		if err := b.Run(ctx); err != nil {
			log.CtxWarn(ctx, "event bridge exited: %v", err)
		}
	}()

	runLoop(ctx, convs, sel, cache, sender, debouncer, results, b.Presence())
}

// searchResults hands published result sets from the debouncer's timer
// goroutine to the driver loop
type searchResults struct {
	mu    sync.Mutex
	users []entity.Participant
}

func (r *searchResults) set(users []entity.Participant) {
	r.mu.Lock()
	r.users = users
	r.mu.Unlock()
}

func (r *searchResults) get() []entity.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users
}

// runLoop is a minimal line-driven surface around the core: enough to
// exercise search, selection and sending without a real UI.
func runLoop(ctx context.Context, convs *store.ConversationStore, sel *selection.Controller,
	cache *thread.Cache, sender *thread.Sender, debouncer *search.Debouncer,
	results *searchResults, presence *bridge.PresenceSet) {

	fmt.Println("commands: /list, /search <term>, /pick <n>, /open <n>, /close, /quit; anything else sends")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()

		switch {
		case line == "/quit":
			return

		case line == "/list":
			for i, conv := range convs.Snapshot() {
				peer, _ := conv.Peer()
				online := ""
				if presence.IsOnline(peer.Id) {
					online = " *"
				}
				fmt.Printf("  [%d] %s%s: %s\n", i, peer.DisplayName, online, conv.LastMessage.Text)
			}

		case strings.HasPrefix(line, "/search "):
			debouncer.Input(strings.TrimPrefix(line, "/search "))

		case strings.HasPrefix(line, "/pick "):
			users := results.get()
			idx := parseIndex(strings.TrimPrefix(line, "/pick "), len(users))
			if idx < 0 {
				fmt.Println("no such search result")
				continue
			}
			pointer := sel.SelectOrCreate(ctx, users[idx])
			if err := cache.LoadFor(ctx, pointer); err != nil {
				log.CtxWarn(ctx, "thread load failed: %v", err)
			}
			debouncer.Input("")

		case strings.HasPrefix(line, "/open "):
			snapshot := convs.Snapshot()
			idx := parseIndex(strings.TrimPrefix(line, "/open "), len(snapshot))
			if idx < 0 {
				fmt.Println("no such conversation")
				continue
			}
			sel.Select(ctx, snapshot[idx])
			if err := cache.LoadFor(ctx, sel.Current()); err != nil {
				log.CtxWarn(ctx, "thread load failed: %v", err)
			}
			for _, msg := range cache.Messages() {
				fmt.Printf("  %s: %s\n", msg.SenderId, msg.Preview())
			}

		case line == "/close":
			sel.Clear()

		default:
			if _, err := sender.Send(ctx, line, nil, ""); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
	}
}

// parseIndex parses a list index and bounds-checks it; -1 when invalid
func parseIndex(s string, length int) int {
	var idx int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &idx); err != nil {
		return -1
	}
	if idx < 0 || idx >= length {
		return -1
	}
	return idx
}
