package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"contentgen/internal/model"
	"contentgen/internal/watch"
)

func runJobs(args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	watchMode := fs.Bool("watch", false, "keep polling and redraw the job board")
	untilDone := fs.Bool("until-done", false, "with --watch, exit once no job is queued, pending or processing")
	interval := fs.Duration("interval", 0, "poll interval for --watch (default: poll_interval setting)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if !*watchMode {
		jobs, err := env.client.Jobs(ctx)
		if err != nil {
			return err
		}
		if env.jsonOut {
			return printJSON(map[string]any{"jobs": jobs})
		}
		if len(jobs) == 0 {
			printLine("no jobs")
			return nil
		}
		now := time.Now()
		for _, j := range jobs {
			printf("%s  %s\n", watch.RenderJobLine(j), watch.FormatAge(j.Created, now))
		}
		return nil
	}

	if env.jsonOut {
		return errors.New("--watch does not support --json")
	}
	every := *interval
	if every <= 0 {
		every = env.settings.PollInterval
	}
	board := watch.NewBoard(watch.Options{
		Interval:  every,
		UntilDone: *untilDone,
		Clear:     stdoutIsTTY(),
		Out:       stdout,
		Logger:    env.log,
	})
	return board.Run(ctx, env.client)
}

func runJob(args []string) error {
	fs := flag.NewFlagSet("job", flag.ContinueOnError)
	common := addCommonFlags(fs)
	wait := fs.Bool("wait", false, "poll until the job completes or fails")
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen job <id> [--wait]")
	}
	id := strings.TrimSpace(pos[0])
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if *wait {
		live := stdout
		if env.jsonOut {
			live = io.Discard
		}
		job, err := watch.Wait(ctx, env.client, id, watch.WaitOptions{
			Interval: env.settings.PollInterval,
			Inline:   !env.jsonOut && stdoutIsTTY(),
			Out:      live,
			Logger:   env.log,
		})
		if err != nil {
			return err
		}
		if env.jsonOut {
			return printJSON(job)
		}
		if model.IsFailed(job.Status) {
			return fmt.Errorf("job %s failed: %s", id, defaultIfEmpty(job.Message, "no message"))
		}
		return nil
	}

	job, err := env.client.Job(ctx, id)
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(job)
	}
	printLine(kv("id", job.ID))
	printLine(kv("status", job.Status))
	printf("progress: %d%%\n", job.ClampedProgress())
	printLine(kv("message", defaultIfEmpty(job.Message, "-")))
	printLine(kv("source", defaultIfEmpty(job.Label(), "-")))
	printLine(kv("created", defaultIfEmpty(job.Created, "-")))
	if job.HasVideo() {
		printLine(kv("video", job.VideoPath))
	}
	return nil
}

func runVideos(args []string) error {
	fs := flag.NewFlagSet("videos", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	videos, err := env.client.Videos(ctx)
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(map[string]any{"videos": videos})
	}
	if len(videos) == 0 {
		printLine("no videos yet")
		return nil
	}
	for _, v := range videos {
		printf("%s  %s  %s\n", padCells(v.Filename, 36), padCells(formatBytesIEC(v.Size), 10), v.Modified)
	}
	return nil
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := fs.String("out", "", "destination directory (default: download_dir setting)")
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen download <filename> [--out DIR]")
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	dir := defaultIfEmpty(strings.TrimSpace(*out), env.settings.DownloadDir)

	ctx, cancel := signalContext()
	defer cancel()
	res, err := downloadVideo(ctx, env.client, pos[0], dir)
	if err != nil {
		return err
	}
	env.log.Info("video downloaded", "filename", res.Filename, "path", res.Path, "bytes", res.Bytes)
	if env.jsonOut {
		return printJSON(res)
	}
	printf("downloaded %s (%s) to %s\n", res.Filename, formatBytesIEC(res.Bytes), res.Path)
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	cfg, err := env.client.Config(ctx)
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(cfg)
	}
	printLine(kv("backend", env.client.BaseURL()))
	for _, line := range backendConfigLines(cfg) {
		printLine(line)
	}
	return nil
}

func runHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	h, err := env.client.Health(ctx)
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(h)
	}
	printf("%s: %s (%s)\n", env.client.BaseURL(), h.Status, defaultIfEmpty(h.Timestamp, "no timestamp"))
	return nil
}
