package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/region23/tts-sync/internal/audio"
	"github.com/region23/tts-sync/internal/cli"
	"github.com/region23/tts-sync/internal/config"
	"github.com/region23/tts-sync/internal/encode"
	"github.com/region23/tts-sync/internal/logging"
	"github.com/region23/tts-sync/internal/processor"
	"github.com/region23/tts-sync/internal/progress"
	"github.com/region23/tts-sync/internal/subtitle"
	"github.com/region23/tts-sync/internal/syncer"
	"github.com/region23/tts-sync/internal/track"
	"github.com/region23/tts-sync/internal/tts"
	"github.com/region23/tts-sync/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version        bool    `short:"v" help:"Show version information"`
	Config         string  `short:"c" type:"path" help:"Path to TOML config file (optional)"`
	Duration       float64 `short:"d" help:"Target track duration in seconds (defaults to the last cue's end time)"`
	Output         string  `short:"o" type:"path" default:"output.wav" help:"Output audio file"`
	Format         string  `help:"Output format: wav, mp3 or ogg (defaults to the output extension)"`
	Algorithm      string  `help:"Tempo algorithm: linear, fir or sinc"`
	Normalize      string  `help:"Normalization policy: track, segment or none"`
	PreservePauses bool    `default:"true" negatable:"" help:"Keep detected pauses at their original length"`
	Logs           bool    `help:"Save a detailed synchronization report next to the output"`
	NoUI           bool    `help:"Log progress to the console instead of the TUI"`
	DumpSegments   bool    `help:"Save the raw synthesized audio of each cue next to the output"`
	Subtitles      string  `arg:"" name:"subtitles" help:"WebVTT subtitle file to synchronize against" type:"existingfile"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("ttssync"),
		kong.Description("Synthesize speech timed to a subtitle file"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(fmt.Sprintf("loading configuration: %v", err))
		os.Exit(1)
	}
	applyFlagOverrides(cfg, cliArgs)

	logging.Setup(cfg.Logging.Level)

	if cfg.TTS.APIKey == "" {
		cli.PrintError("no API key: set tts.api_key in the config file or the OPENAI_API_KEY environment variable")
		os.Exit(1)
	}

	cues, err := subtitle.ParseVTTFile(cliArgs.Subtitles)
	if err != nil {
		cli.PrintError(fmt.Sprintf("parsing subtitles: %v", err))
		os.Exit(1)
	}
	if cues.IsEmpty() {
		cli.PrintError("subtitle file contains no cues")
		os.Exit(1)
	}

	targetDuration := cliArgs.Duration
	if targetDuration <= 0 {
		targetDuration = cues.End()
	}

	opts, err := syncOptions(cfg)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	format := encode.FormatForPath(cliArgs.Output)
	if cliArgs.Format != "" {
		format, err = encode.ParseFormat(cliArgs.Format)
		if err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
	}

	provider := newProvider(cfg)
	decoder := &audio.Decoder{FFmpegPath: cfg.Output.FFmpegPath}
	encoder := &encode.Encoder{FFmpegPath: cfg.Output.FFmpegPath}

	run := &pipelineRun{
		cliArgs:        cliArgs,
		cfg:            cfg,
		cues:           cues,
		targetDuration: targetDuration,
		opts:           opts,
		provider:       provider,
		decoder:        decoder,
		encoder:        encoder,
		format:         format,
		startTime:      time.Now(),
	}

	if cliArgs.NoUI {
		runWithConsole(run)
		return
	}
	runWithUI(run)
}

// pipelineRun bundles everything one synchronization run needs.
type pipelineRun struct {
	cliArgs        *CLI
	cfg            *config.Config
	cues           *subtitle.Track
	targetDuration float64
	opts           syncer.Options
	provider       tts.Provider
	decoder        *audio.Decoder
	encoder        *encode.Encoder
	format         encode.Format
	startTime      time.Time

	timings stageTimings
}

// stageTimings derives per-stage durations from the progress percentages the
// pipeline reports: synthesis runs from 10 to 50 percent, fitting from 50
// to 70.
type stageTimings struct {
	synthStart time.Time
	synthTime  time.Duration
	fitStart   time.Time
	fitTime    time.Duration
}

func (t *stageTimings) observe(percent float64) {
	now := time.Now()
	switch {
	case percent >= 10 && percent < 50 && t.synthStart.IsZero():
		t.synthStart = now
	case percent >= 50 && !t.synthStart.IsZero() && t.synthTime == 0:
		t.synthTime = now.Sub(t.synthStart)
		t.fitStart = now
	case percent >= 70 && !t.fitStart.IsZero() && t.fitTime == 0:
		t.fitTime = now.Sub(t.fitStart)
	}
}

// execute runs synthesis, fitting, assembly and encoding, reporting progress
// through the supplied sink. It returns the run report and the duration of
// the written track.
func (r *pipelineRun) execute(sink progress.Func) (*syncer.RunReport, float64, error) {
	tracker := progress.NewTracker(func(percent float64, status string) {
		r.timings.observe(percent)
		if sink != nil {
			sink(percent, status)
		}
	})

	core := syncer.New(r.provider, r.decoder, r.opts, tracker)
	tr, err := core.Synchronize(context.Background(), r.cues, r.targetDuration)
	if err != nil {
		return nil, 0, err
	}

	buf := tr.Merge()
	saved, err := r.encoder.SaveRawConcat(tr, r.cliArgs.Output, r.format)
	if err != nil {
		return core.Report(), 0, fmt.Errorf("saving output: %w", err)
	}
	if !saved {
		if err := r.encoder.Save(buf, r.cliArgs.Output, r.format); err != nil {
			return core.Report(), 0, fmt.Errorf("saving output: %w", err)
		}
	}

	if r.cliArgs.DumpSegments {
		r.dumpSegments(tr)
	}

	return core.Report(), buf.Duration(), nil
}

// dumpSegments writes each cue's raw synthesized audio next to the output,
// in the container the TTS provider returned.
func (r *pipelineRun) dumpSegments(tr *track.Track) {
	base := strings.TrimSuffix(r.cliArgs.Output, filepath.Ext(r.cliArgs.Output))
	n := 0
	for _, seg := range tr.Segments {
		if len(seg.RawEncoded) == 0 {
			continue
		}
		n++
		path := fmt.Sprintf("%s-cue%03d.%s", base, n, r.cfg.TTS.Format)
		if err := r.encoder.SaveRaw(seg.RawEncoded, path); err != nil {
			log.Warn("failed to dump segment audio", "path", path, "error", err)
		}
	}
	log.Info("dumped raw segment audio", "segments", n)
}

// reportData assembles the synchronization report for a finished run.
func (r *pipelineRun) reportData(report *syncer.RunReport, finalDuration float64) logging.ReportData {
	return logging.ReportData{
		SubtitlePath:  r.cliArgs.Subtitles,
		OutputPath:    r.cliArgs.Output,
		StartTime:     r.startTime,
		EndTime:       time.Now(),
		SynthesisTime: r.timings.synthTime,
		FittingTime:   r.timings.fitTime,
		SampleRate:    r.opts.SampleRate,
		Channels:      r.opts.Channels,
		FinalDuration: finalDuration,
		Algorithm:     string(r.opts.Algorithm),
		Normalization: string(r.opts.Normalization),
		Run:           report,
	}
}

// runWithUI drives the pipeline behind the Bubbletea progress display.
func runWithUI(run *pipelineRun) {
	model := ui.NewModel(run.cliArgs.Subtitles, run.cliArgs.Output)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		report, finalDuration, err := run.execute(func(percent float64, status string) {
			p.Send(ui.ProgressMsg{Percent: percent, Status: status})
		})

		if err == nil && run.cliArgs.Logs {
			if logErr := logging.GenerateReport(run.reportData(report, finalDuration)); logErr != nil {
				log.Warn("failed to write synchronization report", "error", logErr)
			}
		}

		p.Send(ui.RunCompleteMsg{
			OutputPath:    run.cliArgs.Output,
			FinalDuration: finalDuration,
			Report:        report,
			Err:           err,
		})
	}()

	final, err := p.Run()
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
	if m, ok := final.(ui.Model); ok {
		// The alternate screen swallowed the final frame; repeat the
		// summary on the regular terminal.
		fmt.Println(m.View())
		if m.Err != nil {
			os.Exit(1)
		}
	}
}

// runWithConsole drives the pipeline with plain log output.
func runWithConsole(run *pipelineRun) {
	report, finalDuration, err := run.execute(func(percent float64, status string) {
		log.Info(status, "percent", fmt.Sprintf("%.0f", percent))
	})
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	data := run.reportData(report, finalDuration)
	if run.cliArgs.Logs {
		if err := logging.GenerateReport(data); err != nil {
			log.Warn("failed to write synchronization report", "error", err)
		}
	}
	logging.WriteReport(os.Stdout, data)
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides(cfg *config.Config, cliArgs *CLI) {
	if cliArgs.Algorithm != "" {
		cfg.Sync.Algorithm = cliArgs.Algorithm
	}
	if cliArgs.Normalize != "" {
		cfg.Sync.Normalization = cliArgs.Normalize
	}
	cfg.Sync.PreservePauses = cliArgs.PreservePauses
}

// syncOptions maps the validated configuration onto pipeline options.
func syncOptions(cfg *config.Config) (syncer.Options, error) {
	algorithm, err := processor.ParseAlgorithm(cfg.Sync.Algorithm)
	if err != nil {
		return syncer.Options{}, err
	}
	normalization, err := syncer.ParseNormalization(cfg.Sync.Normalization)
	if err != nil {
		return syncer.Options{}, err
	}

	opts := syncer.Options{
		SampleRate:     cfg.Sync.SampleRate,
		Channels:       cfg.Sync.Channels,
		Algorithm:      algorithm,
		PreservePauses: cfg.Sync.PreservePauses,
		Normalization:  normalization,
		TargetPeakDB:   cfg.Sync.TargetPeakDB,
	}

	if cfg.Dynamics.CompressorEnabled {
		opts.Compressor = &processor.CompressorSettings{
			Threshold:  cfg.Dynamics.CompressorThreshold,
			Ratio:      cfg.Dynamics.CompressorRatio,
			Attack:     cfg.Dynamics.CompressorAttack,
			Release:    cfg.Dynamics.CompressorRelease,
			MakeupGain: cfg.Dynamics.CompressorMakeup,
		}
	}
	if cfg.Dynamics.EqualizerEnabled {
		opts.Equalizer = &processor.EqualizerSettings{
			LowGain:  cfg.Dynamics.EqualizerLow,
			MidGain:  cfg.Dynamics.EqualizerMid,
			HighGain: cfg.Dynamics.EqualizerHigh,
			LowFreq:  cfg.Dynamics.EqualizerLowHz,
			HighFreq: cfg.Dynamics.EqualizerHighHz,
		}
	}
	return opts, nil
}

// newProvider builds the OpenAI speech provider from the configuration.
func newProvider(cfg *config.Config) tts.Provider {
	opts := []tts.Option{
		tts.WithModel(cfg.TTS.Model),
		tts.WithVoice(cfg.TTS.Voice),
		tts.WithResponseFormat(cfg.TTS.Format),
	}
	if cfg.TTS.Speed > 0 {
		opts = append(opts, tts.WithSpeed(cfg.TTS.Speed))
	}
	if cfg.TTS.BaseURL != "" {
		opts = append(opts, tts.WithBaseURL(cfg.TTS.BaseURL))
	}
	return tts.NewOpenAI(cfg.TTS.APIKey, opts...)
}
