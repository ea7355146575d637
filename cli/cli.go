// Package cli is the interactive front end: a readline loop dispatching
// commands onto the session store, the listing state machine and the upload
// wizard.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/chzyer/readline"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/config"
	"github.com/purple-archive/archiveclient/listing"
	"github.com/purple-archive/archiveclient/session"
	"github.com/purple-archive/archiveclient/workers"
)

type CLI struct {
	Cfg        config.Config
	Client     *api.Client
	Session    *session.Store
	Listing    *listing.State
	History    *sql.DB
	Prefetcher *workers.ThumbnailPrefetcher

	rl *readline.Instance

	// gamemode cache for display; loaded lazily after login
	gamemodes []api.Gamemode
}

func New(cfg config.Config, client *api.Client, sess *session.Store, state *listing.State, history *sql.DB, prefetcher *workers.ThumbnailPrefetcher) (*CLI, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "archive> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &CLI{
		Cfg:        cfg,
		Client:     client,
		Session:    sess,
		Listing:    state,
		History:    history,
		Prefetcher: prefetcher,
		rl:         rl,
	}, nil
}

// Run drives the interactive loop until exit or EOF.
func (c *CLI) Run(ctx context.Context) error {
	defer c.rl.Close()

	fmt.Println("Purple Archive client. Type 'help' for commands.")
	if c.Session.WasExpired() {
		fmt.Println("Your session has expired. Please log in again.")
	}
	if c.Session.LoggedIn() {
		fmt.Printf("Hello, %s!\n", c.Session.User().DisplayName)
		c.mountListing()
	}

	for {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		args := strings.Fields(line)

		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}

		wasLoggedIn := c.Session.LoggedIn()
		if err := c.dispatch(ctx, args); err != nil {
			fmt.Printf("error: %v\n", err)
		}
		if wasLoggedIn && !c.Session.LoggedIn() {
			fmt.Println("Your session has expired. Please log in again.")
		}
	}
}

func (c *CLI) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		c.printHelp()
		return nil
	case "login":
		return c.cmdLogin(ctx)
	case "logout":
		c.Session.Logout()
		fmt.Println("Logged out.")
		return nil
	}

	// everything below requires an established session
	if !c.Session.LoggedIn() {
		return fmt.Errorf("not logged in; use 'login' first")
	}

	switch args[0] {
	case "me":
		user := c.Session.User()
		fmt.Printf("%s (id %s)\n", user.DisplayName, user.ID)
		return nil
	case "albums":
		return c.cmdAlbums()
	case "filter":
		return c.cmdFilter(args[1:])
	case "sort":
		return c.cmdSort(args[1:])
	case "page":
		return c.cmdPage(args[1:])
	case "next":
		return c.cmdPageStep(1)
	case "prev":
		return c.cmdPageStep(-1)
	case "show":
		return c.cmdShow(ctx, args[1:])
	case "bookmark":
		return c.cmdBookmark(ctx, args[1:])
	case "download":
		return c.cmdDownload(ctx, args[1:])
	case "tag":
		return c.cmdTag(ctx, args[1:])
	case "upload":
		return c.cmdUpload(ctx, args[1:])
	case "gamemodes":
		return c.cmdGamemodes(ctx)
	case "history":
		return c.cmdHistory()
	default:
		return fmt.Errorf("unknown command %q; type 'help'", args[0])
	}
}

func (c *CLI) cmdLogin(ctx context.Context) error {
	if c.Session.LoggedIn() {
		fmt.Println("Already logged in.")
		return nil
	}

	c.rl.SetPrompt("username: ")
	username, err := c.rl.Readline()
	if err != nil {
		c.rl.SetPrompt("archive> ")
		return err
	}
	c.rl.SetPrompt("archive> ")
	password, err := c.rl.ReadPassword("password: ")
	if err != nil {
		return err
	}

	status, err := c.Session.Login(ctx, strings.TrimSpace(username), string(password))
	if err != nil {
		return fmt.Errorf("could not save the session locally: %w", err)
	}
	switch status {
	case api.StatusOk:
		fmt.Printf("Hello, %s!\n", c.Session.User().DisplayName)
		c.mountListing()
		return nil
	case api.StatusUnauthorized:
		return fmt.Errorf("invalid username or password")
	case api.StatusRequestError:
		return fmt.Errorf("could not reach the server")
	default:
		return fmt.Errorf("server error during login")
	}
}

// mountListing initializes the list state machine (first mount only) and
// prints the first page once the initial fetch lands.
func (c *CLI) mountListing() {
	if err := c.Listing.Initialize(); err != nil {
		log.Printf("failed to initialize album listing: %v", err)
		return
	}
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
}

func (c *CLI) printHelp() {
	fmt.Print(`Commands:
  login / logout / me
  albums                      show the current page of the album list
  filter                      show the active filter
  filter desc|player|tag <text>    set a text filter ('' clears one field)
  filter from|until <YYYY-MM-DD>   set the played date range
  filter gamemode <id>        filter by gamemode
  filter mine on|off          only my bookmarks
  filter clear                clear the whole filter
  sort [n]                    list sort modes / choose one
  page <n> | next | prev      pagination (1-based)
  show <n>                    album details (n = row number)
  bookmark <n>                toggle bookmark
  download <n>                download the album GIF
  tag add <n> | tag rm <n> <name>  manage an album's tags
  upload <path>               upload a capture file
  gamemodes                   list gamemodes
  history                     recent uploads and downloads
  exit
`)
}
