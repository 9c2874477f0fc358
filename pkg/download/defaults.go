package download

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aryasaputra/journalvault/pkg/types"
)

// FileSaver writes fetched bytes into a local directory, the non-browser
// substitute for the synthetic anchor-click mechanism.
type FileSaver struct {
	Dir string
}

func (s *FileSaver) Save(data []byte, filename string) error {
	name := SanitizeFilename(filename)
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0644)
}

// SanitizeFilename strips path separators and control characters so a
// server-supplied name cannot escape the save directory. Empty input
// becomes "download".
func SanitizeFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return "download"
	}
	return name
}

// TerminalConfirmer asks on stdin, naming the file the way the original
// confirmation dialog did.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *TerminalConfirmer) Confirm(file *types.FileRecord) bool {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "Download %q? [y/N]: ", file.DisplayName())
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// AlwaysConfirm skips the prompt, for non-interactive callers that already
// carry the user's explicit intent (a --yes flag, an HTTP request).
type AlwaysConfirm struct{}

func (AlwaysConfirm) Confirm(*types.FileRecord) bool { return true }

// BrowserHandoff delegates a URL to the system browser. It backs both the
// passive-delivery stage and the last-resort navigation: in either case the
// process is detached and nothing about the outcome can be observed, which
// mirrors the hidden-frame and window.open mechanisms it replaces.
type BrowserHandoff struct{}

func (BrowserHandoff) Trigger(url string) error  { return openInBrowser(url) }
func (BrowserHandoff) Navigate(url string) error { return openInBrowser(url) }

func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	// Detach; the browser owns the delivery from here on.
	return cmd.Process.Release()
}
