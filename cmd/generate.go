package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/export"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

type generateOpts struct {
	story  string
	length string
	style  string
	aspect string
	out    string
	pdf    bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOpts
	cmd := &cobra.Command{
		Use:   "generate [story]",
		Short: "Generate a moodboard without the server and write its exports",
		Long: `Generates the structure and every thumbnail, then writes <title>.json
(and <title>.pdf with --pdf) into --out. The story comes from --story, the
first argument, or stdin when it is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.story = args[0]
			}
			return runGenerate(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.story, "story", "s", "", "story idea")
	f.StringVarP(&opts.length, "length", "l", string(schema.DefaultLength), "video length (8s, 16s, 30s)")
	f.StringVar(&opts.style, "style", string(schema.DefaultStyle), "style preset")
	f.StringVarP(&opts.aspect, "aspect", "a", string(schema.DefaultAspect), "aspect ratio (16:9, 9:16, 1:1, 4:3)")
	f.StringVarP(&opts.out, "out", "o", ".", "output directory")
	f.BoolVar(&opts.pdf, "pdf", false, "also write a PDF export")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOpts) error {
	ctx, done := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	if opts.story == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read story: %w", err)
		}
		opts.story = string(data)
	}
	in, err := controller.ParseInput(opts.story, opts.length, opts.style, opts.aspect)
	if err != nil {
		return errors.New(apperr.Message(err))
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	stop := context.AfterFunc(ctx, a.ctrl.Close)
	defer stop()

	if _, err := a.ctrl.Generate(ctx, in); err != nil {
		return errors.New(apperr.Message(err))
	}
	a.ctrl.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	st := a.ctrl.State()
	mb := st.Moodboard
	if mb == nil {
		return controller.ErrNoBoard
	}
	for _, sc := range mb.Scenes {
		switch sc.Thumbnail.State {
		case schema.ThumbnailFailed:
			log.Warn("thumbnail failed", "scene", sc.ID, "reason", sc.Thumbnail.Reason())
		case schema.ThumbnailReady:
			log.Debug("thumbnail ready", "scene", sc.ID, "ref", sc.Thumbnail.Ref)
		}
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}
	data, err := export.JSON(mb)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(opts.out, export.Filename(mb.Title, export.ExtJSON))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return err
	}
	log.Info("wrote moodboard", "path", jsonPath, "scenes", len(mb.Scenes), "seconds", mb.TotalDuration())

	if opts.pdf {
		if err := writePDF(a, mb, filepath.Join(opts.out, export.Filename(mb.Title, export.ExtPDF))); err != nil {
			log.Error(export.MsgPDFFailed, "error", err)
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(mb.FinalPrompt))
	return nil
}

func writePDF(a *app, mb *schema.Moodboard, path string) error {
	raster, err := export.Render(mb, a.prefs.Theme(), a.images)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	pages, err := export.PDF(f, raster, mb.Title)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("wrote pdf", "path", path, "pages", pages)
	return nil
}
