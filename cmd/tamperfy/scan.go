package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// imageExts are the upload extensions picked up by a directory scan.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

var errConflictingFormats = errors.New("--json and --markdown are mutually exclusive")

// post is one image upload with its optional caption file.
type post struct {
	Image   string
	Caption string // "" when the upload has no caption
}

// postReport is the scan verdict for one post.
type postReport struct {
	Name        string          `json:"name"`
	Image       tamperfy.Result `json:"image"`
	Text        tamperfy.Result `json:"text"`
	Flagged     bool            `json:"flagged"`
	DuplicateOf string          `json:"duplicate_of,omitempty"`
}

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory of posts",
		Long: `Scan walks a directory of uploads. Every image is paired with a caption
file of the same base name and a .txt extension, when present. Images and
captions are scored concurrently and each post is flagged when either score
is strictly above the flag threshold. Perceptually identical images are
reported as duplicates of the first one seen.

Examples:
  tamperfy scan --dir uploads/
  tamperfy scan --concurrency 8 --threshold 0.5 --json uploads/
  tamperfy scan --markdown uploads/ > review.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("dir", "d", "", "Directory to scan")
	cmd.Flags().IntP("concurrency", "n", 0, "Number of posts scored at once (default: scan.concurrency)")
	cmd.Flags().Float64P("threshold", "t", 0, "Flag threshold (default: flag_threshold)")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dir == "" && len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no directory provided (use --dir or pass it as an argument)")
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if asMarkdown && getJSONFlag(cmd) {
		return errConflictingFormats
	}

	d, cfg, err := newDetector(cmd)
	if err != nil {
		return err
	}
	concurrency := cfg.Scan.Concurrency
	if cmd.Flags().Changed("concurrency") {
		if concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return err
		}
	}
	threshold := cfg.FlagThreshold
	if cmd.Flags().Changed("threshold") {
		if threshold, err = cmd.Flags().GetFloat64("threshold"); err != nil {
			return err
		}
	}
	if concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}

	posts, err := collectPosts(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := scanPosts(ctx, d, posts, concurrency, threshold)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if getJSONFlag(cmd) {
		return writeJSON(out, reports)
	}
	if asMarkdown {
		return writeMarkdownReport(out, dir, threshold, reports)
	}
	var flagged int
	for _, r := range reports {
		mark := "ok"
		if r.Flagged {
			mark = "FLAG"
			flagged++
		}
		line := fmt.Sprintf("%-4s %s  image=%s (%.4f)  text=%s (%.4f)",
			mark, r.Name, r.Image.Label, r.Image.Score, r.Text.Label, r.Text.Score)
		if r.DuplicateOf != "" {
			line += "  duplicate-of=" + r.DuplicateOf
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%d posts, %d flagged\n", len(reports), flagged)
	return nil
}

// collectPosts lists image uploads in dir, sorted by name, with their captions.
func collectPosts(dir string) ([]post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scan directory: %w", err)
	}

	var posts []post
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExts[ext] {
			continue
		}
		p := post{Image: filepath.Join(dir, e.Name())}
		caption := strings.TrimSuffix(p.Image, filepath.Ext(p.Image)) + ".txt"
		if _, err := os.Stat(caption); err == nil {
			p.Caption = caption
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Image < posts[j].Image })
	return posts, nil
}

// scanPosts scores every post on a bounded pool, then marks duplicates in
// directory order so the first upload of an image is the original.
func scanPosts(ctx context.Context, d *tamperfy.Detector, posts []post, concurrency int, threshold float64) ([]postReport, error) {
	reports := make([]postReport, len(posts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range posts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var caption string
			if p.Caption != "" {
				data, err := os.ReadFile(p.Caption)
				if err != nil {
					slog.Warn("cannot read caption", "path", p.Caption, "error", err)
				}
				caption = string(data)
			}

			// Image and caption are independent; score them side by side.
			var img tamperfy.Result
			done := make(chan struct{})
			go func() {
				defer close(done)
				img = d.DetectImage(ctx, p.Image)
			}()
			txt := d.DetectText(ctx, caption)
			<-done

			reports[i] = postReport{
				Name:    filepath.Base(p.Image),
				Image:   img,
				Text:    txt,
				Flagged: tamperfy.FlagsAt(threshold, img, txt),
			}
			slog.Debug("post scored", "post", reports[i].Name, "flagged", reports[i].Flagged)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	var idx tamperfy.DedupIndex
	for i := range reports {
		if orig, dup := idx.Seen(reports[i].Name, reports[i].Image); dup {
			reports[i].DuplicateOf = orig
		}
	}
	return reports, nil
}
