package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		if stdinIsTTY() && stdoutIsTTY() {
			return runStudio(nil)
		}
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "studio":
		return runStudio(args[1:])
	case "upload":
		return runUpload(args[1:])
	case "scripts":
		return runScripts(args[1:])
	case "script":
		return runScript(args[1:])
	case "delete":
		return runDeleteScript(args[1:])
	case "generate":
		return runGenerate(args[1:])
	case "jobs":
		return runJobs(args[1:])
	case "job":
		return runJob(args[1:])
	case "videos":
		return runVideos(args[1:])
	case "download":
		return runDownload(args[1:])
	case "config":
		return runConfig(args[1:])
	case "health":
		return runHealth(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	printLine("contentgen: terminal client for the marketing video generator")
	printLine()
	printLine("Quick Start:")
	printLine("  contentgen upload campaign.md")
	printLine("  contentgen generate campaign.md --wait")
	printLine("  contentgen download <video>.mp4")
	printLine("  contentgen            (interactive studio when run in a terminal)")
	printLine()
	printLine("Commands:")
	printLine("  studio    interactive studio: upload, scripts, jobs, videos, config tabs")
	printLine("  upload    validate and upload a .md/.txt script (max 5MB)")
	printLine("  scripts   list uploaded scripts")
	printLine("  script    show the parsed sections of one script")
	printLine("  delete    delete an uploaded script")
	printLine("  generate  start a video job for a script or one of its sections")
	printLine("  jobs      list jobs; --watch keeps polling")
	printLine("  job       show one job; --wait polls until it finishes")
	printLine("  videos    list rendered videos")
	printLine("  download  save a rendered video locally")
	printLine("  config    show the backend configuration summary")
	printLine("  health    check that the backend is reachable")
	printLine("  settings  show/update client settings")
	printLine()
	printLine("Notes:")
	printLine("  - Use --json on commands for machine-readable output")
	printLine("  - --api-url and --config override the settings file on every command")
	printLine("  - Environment: CONTENTGEN_API_URL, CONTENTGEN_POLL_INTERVAL, ... (also read from .env)")
}
