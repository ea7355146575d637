package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/facette/natsort"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/database"
	"github.com/purple-archive/archiveclient/debounce"
	"github.com/purple-archive/archiveclient/upload"
)

// suggestQuietPeriod bounds tag suggestion lookups while the user types.
const suggestQuietPeriod = 700 * time.Millisecond

func (c *CLI) cmdUpload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("file path required")
	}

	wizard := upload.NewWizard(c.Client, c.History, os.ReadFile)
	wizard.TransitionDelay = 800 * time.Millisecond

	if err := wizard.SelectFile(args[0]); err != nil {
		switch {
		case errors.Is(err, upload.ErrFileRead):
			fmt.Println("Could not read the file.")
		case errors.Is(err, upload.ErrNotGIF):
			fmt.Println("Only GIF files are accepted.")
		case errors.Is(err, upload.ErrBadCaptureName):
			fmt.Println("The file name is not a valid capture date/time (want gp-YYYYMMDD-HHMMSS.gif).")
		}
		return err
	}

	if rec := wizard.LocalDuplicate(); rec != nil {
		fmt.Printf("You already uploaded this exact content as album %d (%s).\n", rec.AlbumID, rec.FileName)
		if !c.confirm("Upload anyway? [y/N] ") {
			wizard.Cancel()
			fmt.Println("Upload cancelled.")
			return nil
		}
	}

	fmt.Printf("Uploading %s (played %s)...\n", wizard.FileName(), wizard.PlayedAt().Format("2006-01-02 15:04"))
	if info := wizard.GIFInfo(); info != nil {
		fmt.Printf("%d page(s), %dx%d.\n", info.PageCount, info.Width, info.Height)
		if path, perr := wizard.Preview(c.Cfg.ThumbnailsPath, c.Cfg.ThumbnailMaxSize); perr == nil {
			fmt.Printf("Preview written to %s\n", path)
		}
	}
	if err := wizard.Stage(ctx); err != nil {
		if api.StatusOf(err) == api.StatusServerSide {
			fmt.Println("The file content is not a valid GIF animation, or the server failed.")
		}
		return err
	}

	if wizard.Phase() == upload.PhaseConfirmDuplicate {
		fmt.Println("An album with the same data already exists on the server.")
		proceed := c.confirm("Proceed anyway? [y/N] ")
		if err := wizard.ConfirmDuplicate(proceed); err != nil {
			return err
		}
		if !proceed {
			fmt.Println("Upload cancelled.")
			return nil
		}
	}

	// metadata entry
	pages := wizard.Pages()
	fmt.Printf("%d page(s). Enter metadata (empty keeps the current value).\n", len(pages))
	for i, page := range pages {
		desc := c.promptLine(fmt.Sprintf("page %d description [%s]: ", i+1, page.Description), page.Description)
		player := c.promptLine(fmt.Sprintf("page %d player [%s]: ", i+1, page.PlayerName), page.PlayerName)
		if err := wizard.SetPageMetaData(i, desc, player); err != nil {
			return err
		}
	}

	gamemodeID, err := c.chooseGamemode(wizard.Gamemodes())
	if err != nil {
		return err
	}
	if err := wizard.SetGamemode(gamemodeID); err != nil {
		return err
	}

	tagIDs, err := c.promptTags(ctx)
	if err != nil {
		return err
	}
	if err := wizard.SetTags(tagIDs); err != nil {
		return err
	}

	album, err := wizard.Commit(ctx)
	if err != nil {
		// the wizard has already terminated; a server failure only costs
		// the entered metadata
		fmt.Println("A server error occurred while saving the album.")
		return err
	}
	fmt.Printf("Uploaded album %d.\n", album.ID)
	c.Listing.Refresh()
	return nil
}

// chooseGamemode displays modes in natural name order and prompts for one.
func (c *CLI) chooseGamemode(modes []api.Gamemode) (int64, error) {
	names := make([]string, len(modes))
	byName := make(map[string]int64, len(modes))
	for i, mode := range modes {
		names[i] = mode.Name
		byName[mode.Name] = mode.ID
	}
	natsort.Sort(names)

	for i, name := range names {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	for {
		raw := c.promptLine("gamemode number [1]: ", "1")
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 1 || n > len(names) {
			fmt.Println("Pick a number from the list.")
			continue
		}
		return byName[names[n-1]], nil
	}
}

// promptTags collects tag names one per line, resolving each to its id via
// the tag endpoint (an existing name resolves to the canonical record).
// Suggestions appear while typing, debounced to one lookup per quiet period.
func (c *CLI) promptTags(ctx context.Context) ([]int64, error) {
	var tagIDs []int64
	seen := make(map[int64]bool)

	fmt.Println("Tags: one per line, empty line to finish.")
	for len(tagIDs) < 10 {
		name := strings.TrimSpace(c.promptTagName(ctx))
		if name == "" {
			break
		}
		tag, err := c.Client.CreateTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to save tag %q: %w", name, err)
		}
		if !seen[tag.ID] {
			seen[tag.ID] = true
			tagIDs = append(tagIDs, tag.ID)
		}
	}
	return tagIDs, nil
}

// promptTagName reads one tag name with debounced suggestions printed as the
// user types.
func (c *CLI) promptTagName(ctx context.Context) string {
	deb := debounce.New(suggestQuietPeriod)
	defer deb.Cancel()

	listener := readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		partial := strings.TrimSpace(string(line))
		if partial == "" {
			deb.Cancel()
			return nil, 0, false
		}
		deb.Schedule(func() {
			limit := 5
			resp, err := c.Client.GetTags(ctx, api.GetTagsParams{PartialName: &partial, Limit: &limit})
			if err != nil || len(resp.Tags) == 0 {
				return
			}
			names := make([]string, len(resp.Tags))
			for i, tag := range resp.Tags {
				names[i] = tag.Name
			}
			fmt.Fprintf(c.rl, "  suggestions: %s\n", strings.Join(names, ", "))
		})
		return nil, 0, false
	})

	c.rl.SetPrompt("tag> ")
	cfg := c.rl.Config.Clone()
	cfg.Listener = listener
	c.rl.SetConfig(cfg)
	defer func() {
		cfg := c.rl.Config.Clone()
		cfg.Listener = nil
		c.rl.SetConfig(cfg)
		c.rl.SetPrompt("archive> ")
	}()

	line, err := c.rl.Readline()
	if err != nil {
		return ""
	}
	return line
}

func (c *CLI) cmdTag(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: tag add <n> | tag rm <n> <name>")
	}
	outline, err := c.outlineAt(args[1:2])
	if err != nil {
		return err
	}
	album, err := c.Client.GetAlbum(ctx, outline.ID, false)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		if len(album.Tags) >= 10 {
			return fmt.Errorf("album already has 10 tags")
		}
		name := strings.TrimSpace(c.promptTagName(ctx))
		if name == "" {
			return nil
		}
		tag, err := c.Client.CreateTag(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to save tag %q: %w", name, err)
		}
		tagIDs := make([]int64, 0, len(album.Tags)+1)
		for _, t := range album.Tags {
			if t.ID == tag.ID {
				return fmt.Errorf("album already carries tag %q", tag.Name)
			}
			tagIDs = append(tagIDs, t.ID)
		}
		tagIDs = append(tagIDs, tag.ID)
		if _, err := c.Client.UpdateAlbum(ctx, album.ID, album.GamemodeID, tagIDs, album.PageMetaData); err != nil {
			return err
		}
		fmt.Printf("Tagged with %q.\n", tag.Name)
		return nil
	case "rm":
		if len(args) < 3 {
			return fmt.Errorf("usage: tag rm <n> <name>")
		}
		name := args[2]
		var tagIDs []int64
		found := false
		for _, t := range album.Tags {
			if t.Name == name {
				found = true
				continue
			}
			tagIDs = append(tagIDs, t.ID)
		}
		if !found {
			return fmt.Errorf("album has no tag %q", name)
		}
		if _, err := c.Client.UpdateAlbum(ctx, album.ID, album.GamemodeID, tagIDs, album.PageMetaData); err != nil {
			return err
		}
		fmt.Printf("Removed tag %q.\n", name)
		return nil
	default:
		return fmt.Errorf("usage: tag add <n> | tag rm <n> <name>")
	}
}

func (c *CLI) cmdGamemodes(ctx context.Context) error {
	modes, err := c.loadGamemodes(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(modes))
	for i, mode := range modes {
		names[i] = mode.Name
	}
	natsort.Sort(names)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func (c *CLI) loadGamemodes(ctx context.Context) ([]api.Gamemode, error) {
	if c.gamemodes != nil {
		return c.gamemodes, nil
	}
	resp, err := c.Client.GetGamemodes(ctx)
	if err != nil {
		return nil, err
	}
	c.gamemodes = resp.Gamemodes
	return c.gamemodes, nil
}

func (c *CLI) gamemodeName(ctx context.Context, id int64) (string, bool) {
	modes, err := c.loadGamemodes(ctx)
	if err != nil {
		return "", false
	}
	for _, mode := range modes {
		if mode.ID == id {
			return mode.Name, true
		}
	}
	return "", false
}

func (c *CLI) cmdHistory() error {
	uploads, err := database.ListUploads(c.History, 20)
	if err != nil {
		return err
	}
	downloads, err := database.ListDownloads(c.History, 20)
	if err != nil {
		return err
	}

	if len(uploads) == 0 && len(downloads) == 0 {
		fmt.Println("No history yet.")
		return nil
	}
	if len(uploads) > 0 {
		fmt.Println("Uploads:")
		for _, rec := range uploads {
			fmt.Printf("  album %-6d %s  %s\n", rec.AlbumID, rec.FileName, time.Unix(rec.UploadedAt, 0).Format("2006-01-02 15:04"))
		}
	}
	if len(downloads) > 0 {
		fmt.Println("Downloads:")
		for _, rec := range downloads {
			fmt.Printf("  album %-6d %s  %s\n", rec.AlbumID, rec.FilePath, time.Unix(rec.DownloadedAt, 0).Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// promptLine reads one line with a default applied on empty input.
func (c *CLI) promptLine(prompt, def string) string {
	c.rl.SetPrompt(prompt)
	defer c.rl.SetPrompt("archive> ")
	line, err := c.rl.Readline()
	if err != nil {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func (c *CLI) confirm(prompt string) bool {
	answer := strings.ToLower(c.promptLine(prompt, "n"))
	return answer == "y" || answer == "yes"
}
