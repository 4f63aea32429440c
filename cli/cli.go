package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/restfetch/restfetch/logger"
	"github.com/restfetch/restfetch/types"
)

const appVersion = "1.0.0"

// Exit codes: 0 ok, 1 record not found, 2 classified fault, 3 unexpected.
const (
	exitOK         = 0
	exitNotFound   = 1
	exitFault      = 2
	exitUnexpected = 3
)

type CLI struct {
	app        *App
	configPath string
	verbose    bool
	force      bool
}

// Execute runs the command tree and maps the resulting error to a process
// exit code. The core components never terminate the process themselves.
func Execute(args []string) int {
	c := &CLI{}

	root := c.newRootCommand()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return c.exitCode(err)
	}
	return exitOK
}

func (c *CLI) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "restfetch",
		Short:         "Fetch, cache and inspect remote record collections",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cmd.Context(), c.configPath, c.verbose)
			if err != nil {
				return err
			}
			c.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app != nil {
				return c.app.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.force, "force", false, "force refresh from the remote API (ignore cache)")

	root.AddCommand(c.newListCommand())
	root.AddCommand(c.newGetCommand())
	root.AddCommand(c.newCacheCommand())

	return root
}

func (c *CLI) newListCommand() *cobra.Command {
	list := &cobra.Command{
		Use:   "list",
		Short: "List resources",
	}

	var postFlags struct {
		userID int
		limit  int
		search string
	}
	posts := &cobra.Command{
		Use:   "posts",
		Short: "List posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleListPosts(cmd.Context(), postFlags.userID, postFlags.limit, postFlags.search)
		},
	}
	posts.Flags().IntVar(&postFlags.userID, "user-id", 0, "filter by user id")
	posts.Flags().IntVar(&postFlags.limit, "limit", 0, "limit results")
	posts.Flags().StringVar(&postFlags.search, "search", "", "search keyword in title/body")

	var userFlags struct {
		limit  int
		search string
	}
	users := &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleListUsers(cmd.Context(), userFlags.limit, userFlags.search)
		},
	}
	users.Flags().IntVar(&userFlags.limit, "limit", 0, "limit users")
	users.Flags().StringVar(&userFlags.search, "search", "", "search in name/username")

	list.AddCommand(posts, users)
	return list
}

func (c *CLI) newGetCommand() *cobra.Command {
	get := &cobra.Command{
		Use:   "get",
		Short: "Get a single resource",
	}

	post := &cobra.Command{
		Use:   "post <id>",
		Short: "Get post by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.handleGetPost(cmd.Context(), id)
		},
	}

	user := &cobra.Command{
		Use:   "user <id>",
		Short: "Get user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.handleGetUser(cmd.Context(), id)
		},
	}

	get.AddCommand(post, user)
	return get
}

func (c *CLI) newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.handleCacheStats()
		},
	}

	clear := &cobra.Command{
		Use:   "clear [key]",
		Short: "Clear one cache key, or everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return c.handleCacheClear(key)
		},
	}

	cacheCmd.AddCommand(stats, clear)
	return cacheCmd
}

func (c *CLI) exitCode(err error) int {
	if types.IsError(err, types.ErrRecordNotFound) {
		return exitNotFound
	}

	for _, classified := range []error{
		types.ErrTransportFault,
		types.ErrRemoteServerFault,
		types.ErrRemoteClientFault,
		types.ErrMalformedResponse,
		types.ErrUnexpectedShape,
		types.ErrRetriesExhausted,
		types.ErrCircuitBreakerOpen,
		types.ErrCacheIO,
		types.ErrConfigNotFound,
		types.ErrConfigParseFailed,
		types.ErrConfigValidateFailed,
	} {
		if types.IsError(err, classified) {
			c.reportError(err)
			return exitFault
		}
	}

	c.reportError(err)
	return exitUnexpected
}

func (c *CLI) reportError(err error) {
	if c.app != nil {
		if zw, ok := c.app.Logger.(*logger.ZapWrapper); ok {
			zw.ErrorWithCause("operation failed", err)
		} else {
			c.app.Logger.Error("operation failed", zap.Error(err))
		}
	}
	fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
}

func parseID(arg string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id < 1 {
		return 0, types.NewErrorf("invalid id %q", arg)
	}
	return id, nil
}
