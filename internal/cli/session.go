// internal/cli/session.go
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/law-makers/evalcrawl/internal/auth"
	"github.com/law-makers/evalcrawl/internal/reqctx"
	"github.com/law-makers/evalcrawl/internal/ui"
	urlutil "github.com/law-makers/evalcrawl/internal/utils/url"
	"github.com/spf13/cobra"
)

var (
	loginURL      string
	waitSelector  string
	loginTimeout  string
	importFormat  string
	importURL     string
	deleteConfirm bool
)

// sessionCmd represents the session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored portal sessions",
	Long: `Log in, import, list, check and delete stored portal sessions.

Sessions are kept in the OS keyring (or ~/.evalcrawl/sessions when no keyring
is available) and can be used with 'evalcrawl crawl --session <name>'.`,
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Log in with a visible browser and store the session",
	Long: `Opens a browser window on the portal. Complete your institution's login,
then press Enter (or pass --wait with a selector of the logged-in page). The
portal cookies are captured and stored under <name>.`,
	Example: `  evalcrawl session login stanford
  evalcrawl session login stanford --wait "#SearchResults"`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionLogin,
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import cookies from stdin and store the session",
	Long: `Reads cookies copied from your browser's developer tools. Useful in
environments without a display, where 'session login' cannot open a browser.`,
	Example: `  # Paste the Cookie request header
  evalcrawl session import stanford

  # curl/Netscape cookies.txt
  evalcrawl session import stanford --format netscape < cookies.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionImport,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionCheckCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check that the portal still accepts a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionCheck,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLoginCmd, sessionImportCmd, sessionListCmd, sessionCheckCmd, sessionDeleteCmd)

	sessionLoginCmd.Flags().StringVar(&loginURL, "url", "", "Login page (defaults to the portal base URL)")
	sessionLoginCmd.Flags().StringVar(&waitSelector, "wait", "", "CSS selector that marks the logged-in page")
	sessionLoginCmd.Flags().StringVar(&loginTimeout, "login-timeout", "5m", "Timeout for the login")

	sessionImportCmd.Flags().StringVar(&importFormat, "format", auth.FormatHeader, "Import format: header, json, netscape")
	sessionImportCmd.Flags().StringVar(&importURL, "url", "", "Portal URL for this session (defaults to the base URL)")

	sessionDeleteCmd.Flags().BoolVarP(&deleteConfirm, "yes", "y", false, "Delete without asking")
}

func runSessionLogin(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	name := args[0]

	timeout, err := time.ParseDuration(loginTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	target := loginURL
	if target == "" {
		target = a.Config.BaseURL
	}

	store, err := a.Sessions()
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n%s\n", ui.Bold("Interactive Login"))
	fmt.Fprintln(out, ui.Field("Session", name))
	fmt.Fprintln(out, ui.Field("URL", target))
	fmt.Fprintf(out, "%s\n\n", ui.Field("Timeout", timeout))

	acquirer := &auth.BrowserAcquirer{
		Options: auth.LoginOptions{
			SessionName:  name,
			URL:          target,
			WaitSelector: waitSelector,
			Timeout:      timeout,
			ExecPath:     a.Config.ChromePath,
			Confirm:      confirmOnEnter(cmd.InOrStdin(), out),
		},
		Store: store,
	}
	if _, err := acquirer.Acquire(cmd.Context()); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(out, ui.Success("Session saved."))
	fmt.Fprintf(out, "Use it with: evalcrawl crawl --session %s\n\n", name)
	return nil
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	name := args[0]

	target := importURL
	if target == "" {
		target = a.Config.BaseURL
	}
	domain := urlutil.CookieDomain(target)

	if importFormat == auth.FormatHeader {
		fmt.Fprint(cmd.ErrOrStderr(), "Paste the Cookie header, then press Ctrl-D: ")
	}
	cookies, err := auth.ImportCookies(cmd.InOrStdin(), importFormat, domain)
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies imported")
	}

	store, err := a.Sessions()
	if err != nil {
		return err
	}
	session := &auth.SessionData{
		Name:      name,
		URL:       target,
		Cookies:   cookies,
		CreatedAt: time.Now(),
		ExpiresAt: auth.EarliestExpiry(cookies),
	}
	if err := store.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\n%s (%d cookies)\n", ui.Success("Session '"+name+"' saved"), len(cookies))
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	store, err := a.Sessions()
	if err != nil {
		return err
	}

	names, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions. Create one with: evalcrawl session login <name>")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Name", "URL", "Cookies", "Created", "Status"})

	for _, name := range names {
		session, err := store.Load(name)
		if err != nil {
			t.AppendRow(table.Row{name, "", "", "", ui.Error(err.Error())})
			continue
		}
		t.AppendRow(table.Row{
			name,
			session.URL,
			len(session.Cookies),
			session.CreatedAt.Format(time.RFC1123),
			sessionStatus(session.ExpiresAt, time.Now()),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func sessionStatus(expires, now time.Time) string {
	if expires.IsZero() {
		return "session cookie"
	}
	return fmt.Sprintf("expires in %s", expires.Sub(now).Round(time.Minute))
}

func runSessionCheck(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	store, err := a.Sessions()
	if err != nil {
		return err
	}
	session, err := store.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", args[0], err)
	}

	ctx := reqctx.WithRunContext(cmd.Context())
	client := a.NewPortal(auth.NewCredential(session.CookieHeader(), nil))
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("portal rejected session '%s': %w", args[0], err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Session '"+args[0]+"' is valid"))
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	a, err := getApp()
	if err != nil {
		return err
	}
	name := args[0]

	if !deleteConfirm {
		fmt.Fprintf(cmd.ErrOrStderr(), "Delete session '%s'? [y/N]: ", name)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if reply := strings.TrimSpace(answer); reply != "y" && reply != "Y" {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn("Cancelled."))
			return nil
		}
	}

	store, err := a.Sessions()
	if err != nil {
		return err
	}
	if err := store.Delete(name); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), ui.Success("Session '"+name+"' deleted"))
	return nil
}

// confirmOnEnter blocks until the operator presses Enter
func confirmOnEnter(in io.Reader, out io.Writer) func() error {
	return func() error {
		fmt.Fprint(out, "Press Enter once you are logged in... ")
		_, err := bufio.NewReader(in).ReadString('\n')
		if err == io.EOF {
			return nil
		}
		return err
	}
}
