package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	annotationgraph "github.com/menta2k/annotation-graph"
	"github.com/menta2k/annotation-graph/internal/config"
	"github.com/menta2k/annotation-graph/internal/logger"
	"github.com/menta2k/annotation-graph/pkg/annotations"
	"github.com/menta2k/annotation-graph/pkg/chart"
	"github.com/menta2k/annotation-graph/pkg/detection"
	"github.com/menta2k/annotation-graph/pkg/ollama"
	"github.com/menta2k/annotation-graph/pkg/presenter"
	"github.com/menta2k/annotation-graph/pkg/processing"
	"github.com/menta2k/annotation-graph/pkg/render"
	"github.com/menta2k/annotation-graph/pkg/types"
)

const usage = `usage: %s <command> [flags]

commands:
  chart     build chart data from annotations and tags, optionally render it
  annotate  tag extracted video frames with a vision model
  config    write the default configuration file
  version   print the version

Run '%s <command> -h' for command flags.
`

func main() {
	name := filepath.Base(os.Args[0])
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, name, name)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "chart":
		err = runChart(os.Args[2:], os.Stdout)
	case "annotate":
		err = runAnnotate(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version":
		fmt.Println(annotationgraph.GetVersion())
	case "-h", "-help", "--help", "help":
		fmt.Fprintf(os.Stdout, usage, name, name)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n"+usage, os.Args[1], name, name)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}

// common flags shared by every command
type common struct {
	configPath string
	envFile    string
	debug      bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default "+config.GetConfigPath()+" when present)")
	fs.StringVar(&c.envFile, "env", "", ".env file with ANNOTATION_GRAPH_* overrides (default .env when present)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
}

// load reads the config file, applies environment overrides and validates
// the result after apply has copied explicitly set flags.
func (c *common) load(fs *flag.FlagSet, apply func(cfg *config.Config, set map[string]bool)) (*config.Config, *log.Logger, error) {
	l := logger.New(logger.Options{Debug: c.debug})

	cfg := config.Default()
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
		l.Debug("Loaded config", "path", path)
	}

	var envFiles []string
	if c.envFile != "" {
		envFiles = append(envFiles, c.envFile)
	}
	if err := cfg.LoadEnv(envFiles...); err != nil {
		return nil, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if apply != nil {
		apply(cfg, set)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, l, nil
}

func runChart(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	var c common
	c.register(fs)

	var annotationsSrc, tagsSrc, out, imagePath, assetType, format string
	var confidence float64
	var hover, width int
	fs.StringVar(&annotationsSrc, "annotations", "", "annotation data JSON path or URL")
	fs.StringVar(&tagsSrc, "tags", "", "tag universe JSON path or URL")
	fs.Float64Var(&confidence, "confidence", 0.5, "minimum detection confidence (0..1)")
	fs.StringVar(&assetType, "asset-type", string(presenter.AssetVideo), "asset type: video|image|audio")
	fs.StringVar(&out, "out", "-", "chart JSON output path, - for stdout")
	fs.StringVar(&imagePath, "image", "", "also render the chart to this image path")
	fs.StringVar(&format, "format", "", "image format: png|jpg|webp (default from config)")
	fs.IntVar(&width, "width", 0, "image width in px (default from config)")
	fs.IntVar(&hover, "hover", render.NoHover, "open the tooltip at this category position")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if annotationsSrc == "" || tagsSrc == "" {
		fs.Usage()
		return fmt.Errorf("-annotations and -tags are required")
	}

	cfg, l, err := c.load(fs, func(cfg *config.Config, set map[string]bool) {
		if set["confidence"] {
			cfg.Pipeline.Confidence = confidence
		}
		if set["format"] {
			cfg.Render.Format = format
		}
		if set["width"] {
			cfg.Render.Width = width
		}
	})
	if err != nil {
		return err
	}

	loader := annotations.NewLoader(l)
	data, err := loader.LoadAnnotations(annotationsSrc)
	if err != nil {
		return err
	}
	universe, err := loader.LoadTags(tagsSrc)
	if err != nil {
		return err
	}

	graph := annotationgraph.NewWithConfig(chart.Config{
		Height:             cfg.Chart.Height,
		Theme:              cfg.Chart.Theme,
		TooltipRows:        cfg.Chart.TooltipRows,
		TooltipColumnWidth: cfg.Chart.TooltipColumnWidth,
	})
	asset := &presenter.Asset{ID: filepath.Base(annotationsSrc), Type: presenter.AssetType(assetType)}

	onPointSelected := func(i int) {
		l.Info("Selected frame", "position", i)
	}
	view, err := presenter.New(graph, l).Present(asset, cfg.Pipeline.Confidence, data, universe, onPointSelected)
	if err != nil {
		return err
	}
	if view.Message != "" {
		l.Warn(view.Message, "state", view.State)
	}

	if err := writeView(view, out, stdout); err != nil {
		return err
	}

	if imagePath == "" {
		return nil
	}
	if view.Chart == nil {
		return fmt.Errorf("nothing to render: %s", view.State)
	}

	r := render.New(render.Config{
		Width:              cfg.Render.Width,
		Height:             cfg.Render.Height,
		TooltipRows:        cfg.Chart.TooltipRows,
		TooltipColumnWidth: cfg.Chart.TooltipColumnWidth,
		Format:             cfg.Render.Format,
		Quality:            cfg.Render.Quality,
		Lossless:           cfg.Render.Lossless,
	}, l)
	img, err := r.RenderHover(view.Chart, hover)
	if err != nil {
		return err
	}
	l.Debug("Tooltip sized", "width", r.TooltipWidth(), "series", len(view.Chart.TooltipEnabledIndexes))
	return r.Save(img, imagePath)
}

func writeView(view *presenter.View, out string, stdout io.Writer) error {
	js, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chart: %w", err)
	}
	js = append(js, '\n')

	if out == "-" {
		_, err = stdout.Write(js)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(out, js, 0o644)
}

func runAnnotate(args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	var c common
	c.register(fs)

	var framesDir, outDir, url, model, tagsSrc, sendFmt, dbgExt string
	var fps float64
	var sendSize, sendQ, dbgQuality int
	var overlays, testVision bool
	fs.StringVar(&framesDir, "frames", "", "directory of extracted frames (frame_0001.jpg ...)")
	fs.StringVar(&outDir, "out", "", "output directory (default from config)")
	fs.StringVar(&url, "url", "", "ollama server URL (default from config)")
	fs.StringVar(&model, "model", "", "vision model name (default from config)")
	fs.Float64Var(&fps, "fps", 0, "frames per second the frames were sampled at (default from config)")
	fs.StringVar(&tagsSrc, "tags", "", "optional tag universe to seed tag ids")
	fs.StringVar(&sendFmt, "sendfmt", "jpg", "format sent to the model: jpg|png")
	fs.IntVar(&sendSize, "sendsize", 0, "max long side sent to the model (px), 0=config")
	fs.IntVar(&sendQ, "sendq", 0, "JPEG quality for images sent to the model (1-100), 0=config")
	fs.BoolVar(&overlays, "overlays", false, "write debug overlays with detection boxes")
	fs.StringVar(&dbgExt, "dbgext", "png", "debug overlay format: png|jpg|webp")
	fs.IntVar(&dbgQuality, "dbgquality", 92, "debug overlay quality (for jpg/webp)")
	fs.BoolVar(&testVision, "test-vision", false, "ask the model to describe the first frame and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if framesDir == "" {
		fs.Usage()
		return fmt.Errorf("-frames is required")
	}

	cfg, l, err := c.load(fs, func(cfg *config.Config, set map[string]bool) {
		if set["out"] {
			cfg.Render.OutputDir = outDir
		}
		if set["url"] {
			cfg.Detection.URL = url
		}
		if set["model"] {
			cfg.Detection.Model = model
		}
		if set["fps"] {
			cfg.Detection.FPS = fps
		}
		if set["sendsize"] {
			cfg.Detection.SendSize = sendSize
		}
		if set["sendq"] {
			cfg.Detection.SendQ = sendQ
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor := processing.NewProcessor()
	images, err := processor.ListFrameImages(framesDir)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no numbered frame images in %s", framesDir)
	}
	l.Info("Found frames", "count", len(images), "dir", framesDir)

	visionClient, err := ollama.NewClient(cfg.Detection.URL)
	if err != nil {
		return fmt.Errorf("failed to create Ollama client: %w", err)
	}
	annotator := detection.NewAnnotator(visionClient, detection.Config{
		Model:       cfg.Detection.Model,
		SendFormat:  sendFmt,
		SendSize:    cfg.Detection.SendSize,
		SendQuality: cfg.Detection.SendQ,
	}, l)

	if tagsSrc != "" {
		seed, err := annotations.NewLoader(l).LoadTags(tagsSrc)
		if err != nil {
			return err
		}
		annotator.WithUniverse(seed)
	}

	if testVision {
		img, err := processor.LoadImage(images[0].Path)
		if err != nil {
			return err
		}
		answer, err := annotator.TestVision(ctx, img)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	}

	data, err := annotator.AnnotateFrames(ctx, images, cfg.Detection.FPS)
	if err != nil {
		return err
	}

	outDir = cfg.Render.OutputDir
	annotationsPath := filepath.Join(outDir, "annotations.json")
	if err := annotations.SaveAnnotations(data, annotationsPath); err != nil {
		return err
	}
	tagsPath := filepath.Join(outDir, "tags.json")
	if err := annotations.SaveTags(annotator.Universe(), tagsPath); err != nil {
		return err
	}
	l.Info("Wrote annotations", "path", annotationsPath, "frames", data.Frames.Len(), "tags", annotator.Universe().Len())

	if overlays {
		writeOverlays(processor, images, data, filepath.Join(outDir, "overlays"), dbgExt, dbgQuality, l)
	}
	return nil
}

func writeOverlays(processor *processing.Processor, images []processing.FrameImage, data *types.AnnotationData, dir, ext string, quality int, l *log.Logger) {
	for _, fi := range images {
		frames, ok := data.Frames.Get(fi.Index)
		if !ok || len(frames) == 0 {
			continue
		}
		img, err := processor.LoadImage(fi.Path)
		if err != nil {
			l.Warn("Overlay skipped", "frame", fi.Index, "err", err)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%06d_boxes.%s", fi.Index, strings.ToLower(ext)))
		if err := processor.SaveImage(processor.CreateDebugOverlay(img, frames), path, ext, quality, false); err != nil {
			l.Warn("Overlay save failed", "path", path, "err", err)
			continue
		}
		l.Debug("Wrote overlay", "path", path)
	}
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	path := fs.String("out", config.GetConfigPath(), "where to write the default config")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*path); err == nil && !*force {
		return fmt.Errorf("%s already exists, use -force to overwrite", *path)
	}
	if err := config.Default().SaveToFile(*path); err != nil {
		return err
	}
	fmt.Println(*path)
	return nil
}
