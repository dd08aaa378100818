package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/forPelevin/reelforge/internal/config"
	"github.com/forPelevin/reelforge/internal/pipeline"
	"github.com/forPelevin/reelforge/internal/server"
	"github.com/forPelevin/reelforge/internal/types"
	"github.com/forPelevin/reelforge/internal/usecase"
)

const runTimeout = 3 * time.Hour

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch top posts and comments and save them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := runContext(30 * time.Minute)
			defer cancel()
			path, err := pipeline.Fetch(ctx, app, log)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newEstimateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate [posts.json]",
		Short: "Print how long each post would run and the maximum video length",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := runContext(runTimeout)
			defer cancel()
			est, file, err := pipeline.Estimate(ctx, app, firstArg(args), log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", file)
			fmt.Fprintln(out, renderEstimate(est, shouldColorize(out)))
			return nil
		},
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [posts.json]",
		Short: "Render a narrated video from fetched posts (newest file by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			target, _ := flags.GetFloat64("target")
			speed, _ := flags.GetFloat64("speed")
			if !flags.Changed("target") {
				target = app.Timeline.TargetSeconds
			}
			if !flags.Changed("speed") {
				speed = app.Render.SpeedFactor
			}
			background, _ := flags.GetString("background")
			publish, _ := flags.GetBool("publish")
			privacy, _ := flags.GetString("privacy")
			category, _ := flags.GetString("category")
			if privacy == "" {
				privacy = app.YouTube.Privacy
			}
			if category == "" {
				category = app.YouTube.Category
			}

			postsFile := firstArg(args)
			if postsFile != "" {
				if postsFile, err = filepath.Abs(postsFile); err != nil {
					return err
				}
			}
			cfg := pipeline.RenderConfig{
				App:        app,
				PostsFile:  postsFile,
				Target:     target,
				Speed:      speed,
				Background: background,
				Publish:    publish,
				Privacy:    privacy,
				Category:   category,
				Logger:     log,
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			ctx, cancel := runContext(runTimeout)
			defer cancel()
			m, err := pipeline.Render(ctx, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "video: %s (%.1fs, %d posts)\n", m.Video, m.DurationSec, len(m.Posts))
			if m.VideoID != "" {
				fmt.Fprintf(out, "youtube: https://youtu.be/%s\n", m.VideoID)
			}
			return nil
		},
	}
	cmd.Flags().Float64("target", 70, "Target video length in seconds before speed-up")
	cmd.Flags().Float64("speed", 1.10, "Playback speed factor applied after rendering")
	cmd.Flags().String("background", "", "Background video or directory (default: config background_dir)")
	cmd.Flags().Bool("publish", false, "Generate metadata and upload to YouTube")
	cmd.Flags().String("privacy", "", "YouTube privacy: public, private or unlisted")
	cmd.Flags().String("category", "", "YouTube category id")
	return cmd
}

func newSpeedUpCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speedup <in> <out>",
		Short: "Change the playback speed of a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			factor, _ := cmd.Flags().GetFloat64("factor")
			ctx, cancel := runContext(runTimeout)
			defer cancel()
			return pipeline.SpeedUp(ctx, app, args[0], args[1], factor)
		},
	}
	cmd.Flags().Float64("factor", 1.10, "Speed factor (>1 is faster)")
	return cmd
}

func newSplitCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <video>",
		Short: "Split a video into fixed-length parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sec, _ := cmd.Flags().GetInt("length")
			if !cmd.Flags().Changed("length") {
				sec = app.Render.PartSeconds
			}
			if sec <= 0 {
				return errors.New("length must be > 0")
			}
			ctx, cancel := runContext(runTimeout)
			defer cancel()
			parts, err := pipeline.Split(ctx, app, args[0], time.Duration(sec)*time.Second)
			if err != nil {
				return err
			}
			if len(parts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not longer than %ds, nothing to split\n", args[0], sec)
			}
			for _, p := range parts {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().Int("length", 120, "Part length in seconds")
	return cmd
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <video>",
		Short: "Upload a video to YouTube",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			title, _ := flags.GetString("title")
			desc, _ := flags.GetString("description")
			keywords, _ := flags.GetString("keywords")
			contentFile, _ := flags.GetString("content-file")
			category, _ := flags.GetString("category")
			privacy, _ := flags.GetString("privacy")
			if category == "" {
				category = app.YouTube.Category
			}
			if privacy == "" {
				privacy = app.YouTube.Privacy
			}
			in := pipeline.PublishInput{
				Video: args[0],
				Meta: types.VideoMetadata{
					Title:       title,
					Description: desc,
					Tags:        splitList(keywords),
				},
				Category: category,
				Privacy:  privacy,
			}
			if contentFile != "" {
				b, err := os.ReadFile(contentFile)
				if err != nil {
					return err
				}
				in.Content = string(b)
			}

			ctx, cancel := runContext(runTimeout)
			defer cancel()
			id, meta, err := pipeline.Publish(ctx, app, in, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %q: https://youtu.be/%s\n", meta.Title, id)
			return nil
		},
	}
	cmd.Flags().String("title", "", "Video title (generated from --content-file when empty)")
	cmd.Flags().String("description", "", "Video description")
	cmd.Flags().String("keywords", "", "Comma separated tags")
	cmd.Flags().String("content-file", "", "Text file to generate metadata from")
	cmd.Flags().String("category", "", "YouTube category id")
	cmd.Flags().String("privacy", "", "public, private or unlisted")
	return cmd
}

type storyFile struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func newStoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story [content.json]",
		Short: "Narrate a titled story into a video, split and uploaded like the HTTP endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			var in storyFile
			if len(args) == 1 {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if err := json.Unmarshal(b, &in); err != nil {
					return fmt.Errorf("decode %s: %w", filepath.Base(args[0]), err)
				}
			}
			if t, _ := cmd.Flags().GetString("title"); t != "" {
				in.Title = t
			}
			if c, _ := cmd.Flags().GetString("content"); c != "" {
				in.Content = c
			}

			if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
				return usecase.ErrMissingStoryFields
			}

			ctx, cancel := runContext(runTimeout)
			defer cancel()
			svc, err := pipeline.NewStoryService(ctx, app, log)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			defer svc.Close()

			res, err := svc.Generate(ctx, uuid.NewString(), in.Title, in.Content)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().String("title", "", "Story title (overrides the file)")
	cmd.Flags().String("content", "", "Story text (overrides the file)")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the story pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Server.Bind = addr
			}
			ctx, cancel := runContext(0)
			defer cancel()

			svc, err := pipeline.NewStoryService(ctx, app, log)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			defer svc.Close()

			srv := server.New(svc, server.Options{AllowOrigins: app.Server.AllowOrigins, Logger: log})
			return srv.Run(ctx, app.Server.Bind)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: config server.bind)")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := firstArg(args)
			if path == "" {
				path = "reelforge.toml"
			}
			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
