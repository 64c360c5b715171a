package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"contentgen/internal/api"
	"contentgen/internal/model"
	"contentgen/internal/scriptdoc"
	"contentgen/internal/watch"
)

func runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	common := addCommonFlags(fs)
	preview := fs.Bool("preview", false, "parse the file locally and print its sections before uploading")
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen upload <file> [--preview]")
	}
	path := strings.TrimSpace(pos[0])
	if _, err := api.ValidateUploadFile(path); err != nil {
		return err
	}

	env, err := common.open()
	if err != nil {
		return err
	}
	var sections []scriptdoc.Script
	if *preview {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sections = scriptdoc.Parse(string(data))
		if !env.jsonOut {
			printPreview(sections)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	name, err := env.client.Upload(ctx, path)
	if err != nil {
		return &api.UploadError{Filename: path, Err: err}
	}
	env.log.Info("script uploaded", "filename", name)
	if env.jsonOut {
		out := map[string]any{"filename": name}
		if *preview {
			out["scripts"] = sections
		}
		return printJSON(out)
	}
	printLine(api.UploadMessage(name, nil))
	return nil
}

func printPreview(sections []scriptdoc.Script) {
	if len(sections) == 0 {
		printLine("preview: no script sections found")
		return
	}
	total := scriptdoc.Summary(sections)
	printf("preview: %d sections, %d elements (scenes %d, narrations %d, audio %d, text %d)\n",
		len(sections), total.TotalElements, total.Scenes, total.Narrations, total.AudioCues, total.TextOverlays)
	for _, s := range sections {
		st := s.Statistics()
		printf("  - %s [%s] %d elements\n", s.Title, defaultIfEmpty(s.Style, "-"), st.TotalElements)
	}
}

func runScripts(args []string) error {
	fs := flag.NewFlagSet("scripts", flag.ContinueOnError)
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
	scripts, err := env.client.Scripts(ctx)
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(map[string]any{"scripts": scripts})
	}
	if len(scripts) == 0 {
		printLine("no scripts uploaded")
		return nil
	}
	for _, s := range scripts {
		printf("%s  %s  %s\n", padCells(s.Filename, 36), padCells(formatBytesIEC(s.Size), 10), s.Modified)
	}
	return nil
}

func runScript(args []string) error {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	common := addCommonFlags(fs)
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen script <filename>")
	}
	env, err := common.open()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	detail, err := env.client.Script(ctx, pos[0])
	if err != nil {
		return err
	}
	if env.jsonOut {
		return printJSON(detail)
	}
	printf("%s: %d sections\n", detail.Filename, len(detail.Sections))
	for i, s := range detail.Sections {
		printLine()
		printf("%d. %s\n", i+1, s.Title)
		printLine("   " + kv("concept", defaultIfEmpty(s.Concept, "-")))
		printLine("   " + kv("style", defaultIfEmpty(s.Style, "-")))
		printf("   narrations %d | audio cues %d | scenes %d | text overlays %d\n",
			s.Statistics.Narrations, s.Statistics.AudioCues, s.Statistics.Scenes, s.Statistics.TextOverlays)
	}
	return nil
}

func runDeleteScript(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	common := addCommonFlags(fs)
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen delete <filename> [--yes]")
	}
	filename := strings.TrimSpace(pos[0])
	env, err := common.open()
	if err != nil {
		return err
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("Delete script %q from the backend? [y/N]: ", filename))
		if err != nil {
			return err
		}
		if !ok {
			printLine("delete cancelled")
			return nil
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := env.client.DeleteScript(ctx, filename); err != nil {
		return err
	}
	env.log.Info("script deleted", "filename", filename)
	if env.jsonOut {
		return printJSON(map[string]any{"deleted": filename})
	}
	printLine("deleted " + filename)
	return nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	title := fs.String("title", "", "generate only the section with this script title")
	yes := fs.Bool("yes", false, "skip confirmation prompt")
	wait := fs.Bool("wait", false, "poll the job until it completes or fails")
	fs.SetOutput(flag.CommandLine.Output())
	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return errors.New("usage: contentgen generate <filename> [--title T] [--yes] [--wait]")
	}
	filename := strings.TrimSpace(pos[0])
	env, err := common.open()
	if err != nil {
		return err
	}
	if !*yes {
		target := filename
		if t := strings.TrimSpace(*title); t != "" {
			target = fmt.Sprintf("%q from %s", t, filename)
		}
		ok, err := promptConfirm(fmt.Sprintf("Generate a video for %s? [y/N]: ", target))
		if err != nil {
			return err
		}
		if !ok {
			printLine("generate cancelled")
			return nil
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	id, err := env.client.Generate(ctx, filename, strings.TrimSpace(*title))
	if err != nil {
		return err
	}
	env.log.Info("generation started", "job_id", id, "filename", filename)
	if !*wait {
		if env.jsonOut {
			return printJSON(map[string]any{"job_id": id, "filename": filename})
		}
		printLine("generation started: " + id)
		return nil
	}

	if !env.jsonOut {
		printLine("generation started: " + id)
	}
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
		if err := printJSON(map[string]any{"job_id": id, "filename": filename, "job": job}); err != nil {
			return err
		}
	}
	if model.IsFailed(job.Status) {
		return fmt.Errorf("job %s failed: %s", id, defaultIfEmpty(job.Message, "no message"))
	}
	if !env.jsonOut && job.HasVideo() {
		printf("video: %s (contentgen download %s)\n", job.VideoPath, videoFilename(job))
	}
	return nil
}
