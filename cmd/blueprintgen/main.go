// Command blueprintgen turns a free-text business idea into a technical
// blueprint through a staged generation pipeline.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"blueprint/pkg/agent"
	"blueprint/pkg/agent/middleware/metrics"
	"blueprint/pkg/blueprint"
	"blueprint/pkg/config"
	"blueprint/pkg/cost"
	"blueprint/pkg/eventlog"
	"blueprint/pkg/logx"
	querymetrics "blueprint/pkg/metrics"
	"blueprint/pkg/pipeline"
)

const passwordEnvVar = "BLUEPRINTGEN_PASSWORD"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("a command is required")
	}

	switch args[0] {
	case "generate":
		return runGenerate(args[1:])
	case "estimate":
		return runEstimate(args[1:])
	case "secrets":
		return runSecrets(args[1:])
	case "stats":
		return runStats(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "blueprintgen - technical blueprint generator\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  blueprintgen generate --idea <text> [flags]\n")
	fmt.Fprintf(os.Stderr, "  blueprintgen estimate --idea <text> [flags]\n")
	fmt.Fprintf(os.Stderr, "  blueprintgen secrets init [--dir <project dir>]\n")
	fmt.Fprintf(os.Stderr, "  blueprintgen stats --run <id> [--prometheus-url <url>]\n\n")
	fmt.Fprintf(os.Stderr, "Generate flags:\n")
	fmt.Fprintf(os.Stderr, "  --idea         Business idea text\n")
	fmt.Fprintf(os.Stderr, "  --idea-file    Read the idea from a file instead\n")
	fmt.Fprintf(os.Stderr, "  --detail       high_level, detailed, or production_ready (default detailed)\n")
	fmt.Fprintf(os.Stderr, "  --platform     Target platform: aws, gcp, azure, digital_ocean, heroku, vercel, render, railway, fly_io, other\n")
	fmt.Fprintf(os.Stderr, "  --custom-platform  Platform name when --platform=other\n")
	fmt.Fprintf(os.Stderr, "  --model        Model name (default per provider)\n")
	fmt.Fprintf(os.Stderr, "  --provider     Provider when no model is given\n")
	fmt.Fprintf(os.Stderr, "  --config       Config file path\n")
	fmt.Fprintf(os.Stderr, "  --out          Output directory (default .)\n")
	fmt.Fprintf(os.Stderr, "  --format       md, json, or both (default both)\n")
	fmt.Fprintf(os.Stderr, "  --yes          Skip the cost confirmation prompt\n")
	fmt.Fprintf(os.Stderr, "  --dir          Project directory holding the encrypted secrets file (default .)\n")
}

type generateOptions struct {
	idea           string
	ideaFile       string
	detail         string
	platform       string
	customPlatform string
	model          string
	provider       string
	configPath     string
	outDir         string
	format         string
	yes            bool
	projectDir     string
}

func parseGenerateFlags(name string, args []string) (*generateOptions, error) {
	opts := &generateOptions{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.idea, "idea", "", "business idea text")
	fs.StringVar(&opts.ideaFile, "idea-file", "", "file holding the business idea")
	fs.StringVar(&opts.detail, "detail", string(blueprint.DetailDetailed), "detail level")
	fs.StringVar(&opts.platform, "platform", string(blueprint.PlatformAWS), "target platform")
	fs.StringVar(&opts.customPlatform, "custom-platform", "", "platform name when --platform=other")
	fs.StringVar(&opts.model, "model", "", "model name")
	fs.StringVar(&opts.provider, "provider", "", "provider name")
	fs.StringVar(&opts.configPath, "config", "", "config file path")
	fs.StringVar(&opts.outDir, "out", ".", "output directory")
	fs.StringVar(&opts.format, "format", "both", "export format: md, json, or both")
	fs.BoolVar(&opts.yes, "yes", false, "skip the cost confirmation prompt")
	fs.StringVar(&opts.projectDir, "dir", ".", "project directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.ideaFile != "" {
		data, err := os.ReadFile(opts.ideaFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read idea file: %w", err)
		}
		opts.idea = strings.TrimSpace(string(data))
	}
	return opts, nil
}

func (o *generateOptions) userInput() blueprint.UserInput {
	return blueprint.UserInput{
		BusinessIdea:   o.idea,
		DetailLevel:    blueprint.DetailLevel(o.detail),
		Platform:       blueprint.Platform(o.platform),
		CustomPlatform: o.customPlatform,
	}
}

func (o *generateOptions) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}
	if o.provider != "" {
		cfg.Provider = config.Provider(o.provider)
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGenerate(args []string) error {
	opts, err := parseGenerateFlags("generate", args)
	if err != nil {
		return err
	}
	input := opts.userInput()
	if err := input.Validate(); err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	modelName := cfg.ResolvedModel()
	estimate := cost.NewEstimator(modelName).EstimateRun(input)
	fmt.Printf("Estimated cost: %s\n", estimate)
	if !opts.yes {
		if !confirm("Proceed?") {
			return fmt.Errorf("aborted")
		}
	}

	creds, err := loadCredentials(opts.projectDir)
	if err != nil {
		return err
	}

	memory := metrics.NewMemoryRecorder()
	recorders := []metrics.Recorder{memory}
	if cfg.Metrics.Enabled {
		recorders = append(recorders, metrics.NewPrometheusRecorder(nil))
	}
	var ledger *eventlog.Ledger
	if cfg.EventLog.Enabled {
		ledger, err = eventlog.Open(cfg.EventLog.Path)
		if err != nil {
			return err
		}
		defer func() { _ = ledger.Close() }()
		recorders = append(recorders, ledger)
	}
	recorder := metrics.Multi(recorders...)

	logger := logx.NewLogger("blueprintgen")
	factory := agent.NewClientFactory(cfg, creds, recorder, logger)
	pipe, err := pipeline.New(cfg, factory)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan pipeline.Event, 16)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for ev := range events {
			printEvent(ev)
		}
	}()

	bp, runErr := pipe.Run(ctx, input, events)
	<-progressDone

	if bp == nil {
		return runErr
	}
	if bp.Partial {
		fmt.Fprintf(os.Stderr, "Generation halted: %s\n", bp.FailureReason)
		fmt.Fprintln(os.Stderr, "Exporting the completed stages.")
	}

	if totals := memory.RunTotals(bp.ID); totals != nil {
		fmt.Printf("Spend: %d calls, %d prompt + %d completion tokens, $%.4f\n",
			totals.RequestCount, totals.PromptTokens, totals.CompletionTokens, totals.TotalCost)
	}

	if err := export(bp, opts.outDir, opts.format); err != nil {
		return err
	}
	return runErr
}

func runEstimate(args []string) error {
	opts, err := parseGenerateFlags("estimate", args)
	if err != nil {
		return err
	}
	input := opts.userInput()
	if err := input.Validate(); err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	model := cfg.ResolvedModel()
	estimate := cost.NewEstimator(model).EstimateRun(input)
	fmt.Println(estimate)

	provider, err := config.GetModelProvider(model)
	if err != nil {
		return err
	}
	info, err := config.GetProviderInfo(provider)
	if err != nil {
		return err
	}
	fmt.Printf("Provider: %s, model: %s\n", provider, model)
	fmt.Printf("Capabilities: json_mode=%t openai_compatible=%t strict_alternation=%t tolerant_envelope=%t local_only=%t\n",
		info.Quirks.SupportsJSONMode, info.Quirks.OpenAICompatible,
		info.Quirks.RequiresAlternation, info.Quirks.StripUnknownEnvelopeFields,
		info.Quirks.LocalOnly)
	return nil
}

func export(bp *blueprint.Blueprint, outDir, format string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	baseName := "blueprint-" + bp.ID

	if format == "md" || format == "both" {
		md, err := bp.RenderMarkdown()
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, baseName+".md")
		if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
			return fmt.Errorf("failed to write markdown export: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	if format == "json" || format == "both" {
		data, err := bp.RenderJSON()
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, baseName+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write JSON export: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	if format != "md" && format != "json" && format != "both" {
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func printEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventRunStarted:
		fmt.Println("Credentials verified, starting generation")
	case pipeline.EventStageStarted:
		fmt.Printf("[%s] generating...\n", ev.Stage)
	case pipeline.EventStageCompleted:
		fmt.Printf("[%s] done\n", ev.Stage)
	case pipeline.EventDiagramReady:
		fmt.Printf("[diagram] %s ready\n", ev.Diagram)
	case pipeline.EventWarning:
		fmt.Printf("[warning] %s\n", ev.Message)
	case pipeline.EventRunCompleted:
		fmt.Println("Blueprint complete")
	case pipeline.EventRunFailed:
		fmt.Printf("[%s] failed: %s\n", ev.Stage, ev.Message)
	}
}

// loadCredentials builds the credential source for a run. The encrypted
// secrets file wins when present; decrypted keys live only in memory and
// the store falls through to the environment for anything it lacks.
func loadCredentials(projectDir string) (config.CredentialSource, error) {
	store := config.NewSecretStore()
	if !config.SecretsFileExists(projectDir) {
		return store, nil
	}

	password := os.Getenv(passwordEnvVar)
	if password == "" {
		fmt.Printf("Enter the secrets password for %s: ", projectDir)
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
		for i := range raw {
			raw[i] = 0
		}
	}

	if err := store.LoadFromFile(projectDir, password); err != nil {
		return nil, err
	}
	return store, nil
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func runSecrets(args []string) error {
	if len(args) < 1 || args[0] != "init" {
		return fmt.Errorf("usage: blueprintgen secrets init [--dir <project dir>]")
	}

	fs := flag.NewFlagSet("secrets init", flag.ContinueOnError)
	projectDir := fs.String("dir", ".", "project directory")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	password, err := promptForPassword()
	if err != nil {
		return err
	}

	secrets := make(map[string]string)
	scanner := bufio.NewScanner(os.Stdin)
	for _, p := range []config.Provider{
		config.ProviderOpenAI, config.ProviderDeepSeek, config.ProviderKimi,
		config.ProviderGroq, config.ProviderAnthropic, config.ProviderGoogle,
	} {
		info, err := config.GetProviderInfo(p)
		if err != nil {
			return err
		}
		fmt.Printf("Enter %s (optional, press Enter to skip): ", info.KeyName)
		if !scanner.Scan() {
			break
		}
		value := strings.TrimSpace(scanner.Text())
		if value != "" {
			secrets[info.KeyName] = value
		}
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no keys entered, nothing to save")
	}

	if err := config.EncryptSecretsFile(*projectDir, password, secrets); err != nil {
		return err
	}
	fmt.Printf("Saved %d keys to the encrypted secrets file (permissions 0600).\n", len(secrets))
	fmt.Printf("Set %s to skip the password prompt on later runs.\n", passwordEnvVar)
	return nil
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	runID := fs.String("run", "", "run ID to query")
	configPath := fs.String("config", "", "config file path")
	prometheusURL := fs.String("prometheus-url", "", "Prometheus base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return fmt.Errorf("--run is required")
	}

	url := *prometheusURL
	if url == "" && *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		url = cfg.Metrics.PrometheusURL
	}
	if url == "" {
		url = "http://localhost:9090"
	}

	svc, err := querymetrics.NewQueryService(url)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	totals, err := svc.GetRunMetrics(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s: %d prompt + %d completion = %d tokens, $%.4f\n",
		totals.RunID, totals.PromptTokens, totals.CompletionTokens, totals.TotalTokens, totals.TotalCost)

	byStage, err := svc.GetRunMetricsByStage(ctx, *runID)
	if err != nil {
		return err
	}
	if len(byStage) == 0 {
		return nil
	}
	fmt.Println("\nBy stage:")
	for stage, m := range byStage {
		fmt.Printf("  %-14s %8d tokens  $%.4f\n", stage, m.TotalTokens, m.TotalCost)
	}
	return nil
}

func promptForPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Enter a password for the secrets file: ")
		password1, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		password2, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		if !bytes.Equal(password1, password2) {
			if attempt < maxAttempts {
				fmt.Println("Passwords do not match. Please try again.")
				continue
			}
			return "", fmt.Errorf("passwords do not match after %d attempts", maxAttempts)
		}

		password := string(password1)
		for i := range password1 {
			password1[i] = 0
		}
		for i := range password2 {
			password2[i] = 0
		}
		return password, nil
	}
	return "", fmt.Errorf("failed to get matching passwords")
}
