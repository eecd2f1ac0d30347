package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gwi.com/pdf-chat/internal/core"
	"gwi.com/pdf-chat/internal/utils"
)

const helpText = `Commands:
  /upload <paths...>  upload PDF files
  /docs               list documents (* marks the active one)
  /use <id>           ask about another document
  /summary            summarize the active document
  /history            show past questions for the active document
  /help               show this help
  /quit               exit
Anything else is sent as a question.
`

// printer serialises console output from the REPL, the inbox watcher and
// controller notifications.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	printed map[int]string
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, printed: make(map[int]string)}
}

func (p *printer) Notify(n core.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	marker := "*"
	if n.Severity == core.SeverityDestructive {
		marker = "!"
	}
	fmt.Fprintf(p.w, "%s %s: %s\n", marker, n.Title, n.Description)
}

func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Prompt() {
	p.Printf("> ")
}

// Messages prints assistant messages not printed yet. The user's own lines
// are already on screen. A "Thinking..." placeholder is skipped, and the
// answer that later replaces it under the same id is printed once it lands.
func (p *printer) Messages(msgs []core.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if m.Role != core.RoleAssistant || m.Content == core.ThinkingText {
			continue
		}
		if last, ok := p.printed[m.ID]; ok && last == m.Content {
			continue
		}
		p.printed[m.ID] = m.Content
		fmt.Fprintf(p.w, "\n%s\n\n", m.Content)
	}
}

type console struct {
	ctrl *core.Controller
	out  *printer
}

// handle runs one input line and reports whether the user asked to quit.
func (c *console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	var err error
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		c.out.Printf(helpText)
	case "/docs":
		c.printDocuments()
	case "/use":
		c.use(args)
	case "/upload":
		err = c.upload(ctx, strings.Fields(args))
	case "/summary":
		err = c.ctrl.Summarize(ctx)
	case "/history":
		c.history(ctx)
	default:
		if strings.HasPrefix(cmd, "/") {
			c.out.Printf("Unknown command %s. Type /help for help.\n", cmd)
			return false
		}
		err = c.ctrl.Send(ctx, line)
	}

	if errors.Is(err, core.ErrBusy) {
		c.out.Printf("Still working on the previous request.\n")
	}
	c.out.Messages(c.ctrl.Snapshot().Messages)
	return false
}

func (c *console) printDocuments() {
	state := c.ctrl.Snapshot()
	if len(state.Documents) == 0 {
		c.out.Printf("No documents uploaded yet.\n")
		return
	}
	var b strings.Builder
	for _, d := range state.Documents {
		marker := " "
		if state.ActiveDocumentID != nil && *state.ActiveDocumentID == d.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d  %s  %s\n", marker, d.ID, d.Filename, d.UploadTime)
	}
	c.out.Printf("%s", b.String())
}

func (c *console) use(arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		c.out.Printf("Usage: /use <id>\n")
		return
	}
	if !c.ctrl.SetActive(id) {
		c.out.Printf("Unknown document %d. Type /docs to list documents.\n", id)
		return
	}
	c.printDocuments()
}

func (c *console) upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		c.out.Printf("Usage: /upload <paths...>\n")
		return nil
	}
	files := make([]core.File, 0, len(paths))
	for _, path := range paths {
		f, err := readFile(path)
		if err != nil {
			c.out.Printf("Cannot read %s: %v\n", path, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil
	}
	_, err := c.ctrl.Upload(ctx, files)
	return err
}

func (c *console) history(ctx context.Context) {
	pairs, err := c.ctrl.History(ctx)
	if err != nil {
		return
	}
	if len(pairs) == 0 {
		c.out.Printf("No questions asked about this document yet.\n")
		return
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", p.Question, p.Answer)
	}
	c.out.Printf("%s", b.String())
}

// readFile loads path as a picked file. The declared type comes from the
// extension, as a browser file picker reports it.
func readFile(path string) (core.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.File{}, err
	}
	declared := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return core.File{
		Name: filepath.Base(path),
		Type: utils.DetectContentType(declared, data),
		Data: data,
	}, nil
}
