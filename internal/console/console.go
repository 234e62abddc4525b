package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/webservice-probe/internal/domain"
	"github.com/Adda-Baaj/webservice-probe/pkg/bookmarks"
)

const (
	commandPrefix  = ":"
	bookmarkPrefix = "@"
	maxLineBytes   = 1 << 20 // 1 MiB
)

// Submitter accepts submissions and can wait for them to settle.
type Submitter interface {
	Submit(in domain.RequestInput) string
	Wait()
}

// HistoryReader lists recent submissions, newest first.
type HistoryReader interface {
	Recent(limit int) ([]domain.HistoryEntry, error)
}

// BookmarkResolver looks up named URLs.
type BookmarkResolver interface {
	ByID(id string) (bookmarks.Bookmark, bool)
	All() []bookmarks.Bookmark
}

// Console is the line-oriented front end: stdin lines in, rendered outcomes out.
// It also serves as the session's display surface.
type Console struct {
	in           io.Reader
	out          io.Writer
	mu           sync.Mutex
	submitter    Submitter
	history      HistoryReader
	bookmarks    BookmarkResolver
	historyLimit int
}

// Options carries the optional collaborators of a Console.
type Options struct {
	History      HistoryReader
	Bookmarks    BookmarkResolver
	HistoryLimit int
}

// New builds a console reading from in and writing to out.
func New(in io.Reader, out io.Writer, opts Options) *Console {
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = 10
	}
	return &Console{
		in:           in,
		out:          out,
		history:      opts.History,
		bookmarks:    opts.Bookmarks,
		historyLimit: limit,
	}
}

// Attach sets the submitter lines are forwarded to. The session needs the
// console as its display, so the two are wired in two steps.
func (c *Console) Attach(s Submitter) {
	c.submitter = s
}

// ShowText writes a rendered outcome.
func (c *Console) ShowText(text string) {
	c.println(text)
}

// ShowError writes an input error the way an alert would present it.
func (c *Console) ShowError(title, message string) {
	c.println(fmt.Sprintf("[%s] %s", title, message))
}

// Run reads lines until EOF, ctx cancellation or :quit. Pending submissions
// are allowed to finish before it returns.
func (c *Console) Run(ctx context.Context) error {
	if c.submitter == nil {
		return fmt.Errorf("console has no submitter attached")
	}

	c.println("Enter a URL to fetch (:help for commands).")

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		if quit := c.handleLine(scanner.Text()); quit {
			break
		}
	}

	c.submitter.Wait()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (c *Console) handleLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, commandPrefix):
		return c.runCommand(strings.Fields(strings.TrimPrefix(trimmed, commandPrefix)))
	case strings.HasPrefix(trimmed, bookmarkPrefix) && len(trimmed) > len(bookmarkPrefix):
		id := strings.TrimPrefix(trimmed, bookmarkPrefix)
		if c.bookmarks == nil {
			c.println("No bookmarks configured.")
			return false
		}
		bm, ok := c.bookmarks.ByID(id)
		if !ok {
			c.println(fmt.Sprintf("Unknown bookmark %q.", id))
			return false
		}
		c.submitter.Submit(domain.RequestInput{Raw: bm.URL})
	default:
		c.submitter.Submit(domain.RequestInput{Raw: line})
	}
	return false
}

func (c *Console) runCommand(args []string) bool {
	if len(args) == 0 {
		c.printHelp()
		return false
	}

	switch strings.ToLower(args[0]) {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		c.printHelp()
	case "bookmarks":
		c.printBookmarks()
	case "history":
		limit := c.historyLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				c.println("Usage: :history [count]")
				return false
			}
			limit = n
		}
		c.printHistory(limit)
	default:
		c.println(fmt.Sprintf("Unknown command %q.", args[0]))
	}
	return false
}

func (c *Console) printHelp() {
	c.println(strings.Join([]string{
		"<url>          fetch the URL and show the response",
		"@<bookmark>    fetch a bookmarked URL",
		":bookmarks     list bookmarks",
		":history [n]   show the last n submissions",
		":quit          exit",
	}, "\n"))
}

func (c *Console) printBookmarks() {
	if c.bookmarks == nil || len(c.bookmarks.All()) == 0 {
		c.println("No bookmarks configured.")
		return
	}
	var b strings.Builder
	for i, bm := range c.bookmarks.All() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "@%-12s %s (%s)", bm.ID, bm.URL, bm.Name)
	}
	c.println(b.String())
}

func (c *Console) printHistory(limit int) {
	if c.history == nil {
		c.println("History is disabled.")
		return
	}
	entries, err := c.history.Recent(limit)
	if err != nil {
		c.println(fmt.Sprintf("History unavailable: %v", err))
		return
	}
	if len(entries) == 0 {
		c.println("No history yet.")
		return
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-24s", e.At.Local().Format(time.DateTime), e.Kind)
		if e.StatusCode != 0 {
			fmt.Fprintf(&b, " %d", e.StatusCode)
		}
		if e.URL != "" {
			fmt.Fprintf(&b, "  %s", e.URL)
		}
	}
	c.println(b.String())
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
