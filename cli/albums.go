package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/purple-archive/archiveclient/api"
	"github.com/purple-archive/archiveclient/database"
	"github.com/purple-archive/archiveclient/listing"
	"github.com/purple-archive/archiveclient/media"
)

func formatPlayedAt(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}

func (c *CLI) cmdAlbums() error {
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
	return nil
}

func (c *CLI) printAlbums(snap listing.Snapshot) {
	if snap.Err != nil {
		fmt.Println("Could not load albums. Try again.")
		return
	}
	if snap.TotalCount == 0 {
		fmt.Println("No albums match.")
		return
	}

	for i, album := range snap.Albums {
		mark := " "
		if album.IsBookmarked {
			mark = "*"
		}
		fmt.Printf("%2d. %s %s  views %-5d dl %-4d bookmarks %-4d pages %d\n",
			i+1, mark, formatPlayedAt(album.PlayedAt),
			album.PvCount, album.DownloadCount, album.BookmarkCount, album.PageCount)
	}
	// page indicator is 1-based for display
	fmt.Printf("-- page %d of %d (%d albums", snap.Page+1, snap.PageCount, snap.TotalCount)
	if n := c.Listing.Filter().ActiveCount(); n > 0 {
		fmt.Printf(", %d filters", n)
	}
	fmt.Println(") --")
}

// outlineAt resolves a 1-based row number against the current page.
func (c *CLI) outlineAt(args []string) (api.AlbumOutline, error) {
	if len(args) == 0 {
		return api.AlbumOutline{}, fmt.Errorf("row number required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return api.AlbumOutline{}, fmt.Errorf("invalid row number %q", args[0])
	}
	snap := c.Listing.Snapshot()
	if n < 1 || n > len(snap.Albums) {
		return api.AlbumOutline{}, fmt.Errorf("row %d is not on this page", n)
	}
	return snap.Albums[n-1], nil
}

func (c *CLI) cmdFilter(args []string) error {
	if len(args) == 0 {
		c.printFilter(c.Listing.Filter())
		return nil
	}

	f := c.Listing.Filter()
	switch args[0] {
	case "clear":
		f = listing.Filter{}
	case "desc":
		f.PartialDescription = strings.Join(args[1:], " ")
	case "player":
		f.PartialPlayerName = strings.Join(args[1:], " ")
	case "tag":
		f.PartialTag = strings.Join(args[1:], " ")
	case "from", "until":
		if len(args) < 2 || args[1] == "" {
			if args[0] == "from" {
				f.PlayedFrom = nil
			} else {
				f.PlayedUntil = nil
			}
			break
		}
		t, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[1])
		}
		if args[0] == "from" {
			f.PlayedFrom = &t
		} else {
			// make the bound inclusive of the whole day
			end := t.Add(24*time.Hour - time.Second)
			f.PlayedUntil = &end
		}
	case "gamemode":
		if len(args) < 2 || args[1] == "" {
			f.GamemodeID = nil
			break
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid gamemode id %q", args[1])
		}
		f.GamemodeID = &id
	case "mine":
		f.MyBookmark = len(args) > 1 && args[1] == "on"
	default:
		return fmt.Errorf("unknown filter field %q", args[0])
	}

	c.Listing.UpdateFilter(f)
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
	return nil
}

func (c *CLI) printFilter(f listing.Filter) {
	if f.ActiveCount() == 0 {
		fmt.Println("No filter active.")
		return
	}
	if f.PartialDescription != "" {
		fmt.Printf("  description contains %q\n", f.PartialDescription)
	}
	if f.PartialPlayerName != "" {
		fmt.Printf("  player name contains %q\n", f.PartialPlayerName)
	}
	if f.PlayedFrom != nil {
		fmt.Printf("  played from %s\n", f.PlayedFrom.Format("2006-01-02"))
	}
	if f.PlayedUntil != nil {
		fmt.Printf("  played until %s\n", f.PlayedUntil.Format("2006-01-02"))
	}
	if f.GamemodeID != nil {
		fmt.Printf("  gamemode id %d\n", *f.GamemodeID)
	}
	if f.PartialTag != "" {
		fmt.Printf("  tag contains %q\n", f.PartialTag)
	}
	if f.MyBookmark {
		fmt.Println("  my bookmarks only")
	}
}

func (c *CLI) cmdSort(args []string) error {
	if len(args) == 0 {
		current := c.Listing.SortModeIndex()
		for i, mode := range listing.SortModes {
			mark := " "
			if i == current {
				mark = ">"
			}
			fmt.Printf("%s %d. %s\n", mark, i+1, mode.Label)
		}
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid sort mode %q", args[0])
	}
	if err := c.Listing.UpdateSort(n - 1); err != nil {
		return err
	}
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
	return nil
}

func (c *CLI) cmdPage(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("page number required")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid page number %q", args[0])
	}
	c.Listing.SetPage(n - 1)
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
	return nil
}

func (c *CLI) cmdPageStep(delta int) error {
	c.Listing.SetPage(c.Listing.Page() + delta)
	c.Listing.Wait()
	c.printAlbums(c.Listing.Snapshot())
	return nil
}

func (c *CLI) cmdShow(ctx context.Context, args []string) error {
	outline, err := c.outlineAt(args)
	if err != nil {
		return err
	}

	album, err := c.Client.GetAlbum(ctx, outline.ID, true)
	if err != nil {
		if api.StatusOf(err) == api.StatusNotFound {
			fmt.Println("Album not found; it may have been removed.")
			return nil
		}
		return err
	}

	fmt.Printf("Album %d - %s\n", album.ID, formatPlayedAt(album.PlayedAt))
	fmt.Printf("  views %d, bookmarks %d, downloads %d\n", album.PvCount, album.BookmarkCount, album.DownloadCount)
	if name, ok := c.gamemodeName(ctx, album.GamemodeID); ok {
		fmt.Printf("  gamemode: %s\n", name)
	}
	if len(album.Tags) > 0 {
		names := make([]string, len(album.Tags))
		for i, tag := range album.Tags {
			names[i] = tag.Name
		}
		fmt.Printf("  tags: %s\n", strings.Join(names, ", "))
	}
	for i, page := range album.PageMetaData {
		fmt.Printf("  page %d: %q by %q\n", i+1, page.Description, page.PlayerName)
	}
	if path := c.Prefetcher.CachedPath(album.ID); fileExists(path) {
		fmt.Printf("  thumbnail cached at %s\n", path)
	}
	return nil
}

func (c *CLI) cmdBookmark(ctx context.Context, args []string) error {
	outline, err := c.outlineAt(args)
	if err != nil {
		return err
	}

	if outline.IsBookmarked {
		err = c.Client.Unbookmark(ctx, outline.ID)
	} else {
		err = c.Client.Bookmark(ctx, outline.ID)
	}
	if err != nil {
		return err
	}
	c.Listing.ApplyBookmark(outline.ID, !outline.IsBookmarked)
	if outline.IsBookmarked {
		fmt.Println("Bookmark removed.")
	} else {
		fmt.Println("Bookmarked.")
	}
	return nil
}

func (c *CLI) cmdDownload(ctx context.Context, args []string) error {
	outline, err := c.outlineAt(args)
	if err != nil {
		return err
	}

	// count first, then fetch: mirrors the album page's download action
	if err := c.Client.IncrementDownloadCount(ctx, outline.ID); err != nil {
		return err
	}
	c.Listing.ApplyDownload(outline.ID)

	data, err := c.Client.GetAlbumRaw(ctx, outline.ID)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("album_%d.gif", outline.ID)
	if t, perr := time.Parse(time.RFC3339, outline.PlayedAt); perr == nil {
		fileName = media.FormatCaptureName(t)
	}
	if err := os.MkdirAll(c.Cfg.DownloadsPath, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	destPath := filepath.Join(c.Cfg.DownloadsPath, fileName)
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save album to %s: %w", destPath, err)
	}

	if err := database.AddDownloadRecord(c.History, outline.ID, destPath); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", destPath)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
