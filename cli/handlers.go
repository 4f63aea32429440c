package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/restfetch/restfetch/service"
	"github.com/restfetch/restfetch/types"
	"github.com/restfetch/restfetch/utils"
)

func (c *CLI) handleListPosts(ctx context.Context, userID, limit int, search string) error {
	posts, elapsed, fromCache, err := c.app.Orchestrator.FetchWithCache(
		ctx, keyPosts, c.app.fetchFn("/posts"), c.force)
	if err != nil {
		return err
	}

	filtered := service.FilterPosts(posts, service.PostFilter{
		UserID: userID,
		Limit:  limit,
		Search: search,
	})

	fmt.Println(color.CyanString("Showing %d posts (source: %s, time: %s)",
		len(filtered), sourceOf(fromCache), utils.FormatTiming(elapsed)))

	for _, p := range filtered {
		fmt.Printf("[%d] (user %d) %s\n",
			p.Int("id", 0), p.Int("userId", 0), p.String("title", "<no title>"))
	}

	return nil
}

func (c *CLI) handleListUsers(ctx context.Context, limit int, search string) error {
	users, elapsed, fromCache, err := c.app.Orchestrator.FetchWithCache(
		ctx, keyUsers, c.app.fetchFn("/users"), c.force)
	if err != nil {
		return err
	}

	filtered := service.FilterUsers(users, service.UserFilter{
		Limit:  limit,
		Search: search,
	})

	fmt.Println(color.CyanString("Showing %d users (source: %s, time: %s)",
		len(filtered), sourceOf(fromCache), utils.FormatTiming(elapsed)))

	for _, u := range filtered {
		fmt.Printf("[%d] %s (@%s)\n",
			u.Int("id", 0), u.String("name", "<no name>"), u.String("username", ""))
	}

	return nil
}

// handleGetPost shows one post with its author. Posts and users are
// independent collections, so the two reads run concurrently.
func (c *CLI) handleGetPost(ctx context.Context, postID int) error {
	var posts, users []types.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, _, _, err := c.app.Orchestrator.FetchWithCache(
			gctx, keyPosts, c.app.fetchFn("/posts"), c.force)
		posts = records
		return err
	})
	g.Go(func() error {
		records, _, _, err := c.app.Orchestrator.FetchWithCache(
			gctx, keyUsers, c.app.fetchFn("/users"), false)
		users = records
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	post := service.RecordByID(posts, postID)
	if post == nil {
		fmt.Println(color.YellowString("Post with id %d not found.", postID))
		return types.Errorf(types.ErrRecordNotFound, "post %d", postID)
	}

	fmt.Println(color.GreenString("Post [%d] - %s", postID, post.String("title", "")))
	fmt.Println(post.String("body", ""))

	authorID := post.Int("userId", 0)
	author := service.RecordByID(users, authorID)
	if author == nil {
		fmt.Println(color.YellowString("Author info not available."))
		return nil
	}

	fmt.Println(color.BlueString("\nAuthor: %s (@%s)",
		author.String("name", ""), author.String("username", "")))
	fmt.Printf("Email: %s\n", author.String("email", ""))
	fmt.Println(color.MagentaString("Author posts: %d",
		service.CountByUser(posts, authorID)))

	return nil
}

func (c *CLI) handleGetUser(ctx context.Context, userID int) error {
	users, _, _, err := c.app.Orchestrator.FetchWithCache(
		ctx, keyUsers, c.app.fetchFn("/users"), c.force)
	if err != nil {
		return err
	}

	user := service.RecordByID(users, userID)
	if user == nil {
		fmt.Println(color.YellowString("User with id %d not found.", userID))
		return types.Errorf(types.ErrRecordNotFound, "user %d", userID)
	}

	posts, _, _, err := c.app.Orchestrator.FetchWithCache(
		ctx, keyPosts, c.app.fetchFn("/posts"), false)
	if err != nil {
		return err
	}

	fmt.Println(color.GreenString("User [%d] %s (@%s)",
		userID, user.String("name", ""), user.String("username", "")))
	fmt.Printf("Email: %s\n", user.String("email", ""))
	fmt.Printf("Company: %s\n", user.Object("company").String("name", ""))
	fmt.Println(color.MagentaString("Posts count: %d",
		service.CountByUser(posts, userID)))

	return nil
}

func (c *CLI) handleCacheStats() error {
	stats, err := c.app.Cache.Stats()
	if err != nil {
		return err
	}

	fmt.Println(color.CyanString("Cache stats"))
	fmt.Printf("  TTL:               %s\n", stats.TTL)
	fmt.Printf("  In-memory keys:    %v\n", stats.MemoryKeys)
	fmt.Printf("  Persisted entries: %d\n", stats.PersistedEntries)
	fmt.Printf("  Hits/misses:       %d/%d\n", stats.Hits, stats.Misses)

	values, err := c.app.Metrics.Snapshot()
	if err != nil {
		return err
	}
	if len(values) > 0 {
		fmt.Println(color.CyanString("Metrics"))
		for _, v := range values {
			if len(v.Labels) > 0 {
				fmt.Printf("  %s%v = %g\n", v.Name, v.Labels, v.Value)
			} else {
				fmt.Printf("  %s = %g\n", v.Name, v.Value)
			}
		}
	}

	return nil
}

func (c *CLI) handleCacheClear(key string) error {
	if key == "" {
		if err := c.app.Cache.ClearAll(); err != nil {
			return err
		}
		fmt.Println(color.GreenString("Cleared all cache entries."))
		return nil
	}

	if err := c.app.Cache.Clear(key); err != nil {
		return err
	}
	fmt.Println(color.GreenString("Cleared cache for %q.", key))
	return nil
}

func sourceOf(fromCache bool) string {
	if fromCache {
		return "cache"
	}
	return "api"
}
