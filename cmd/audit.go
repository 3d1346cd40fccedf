package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/spigell/ats-auditor/internal/ai/gemini"
	"github.com/spigell/ats-auditor/internal/audit"
	"github.com/spigell/ats-auditor/internal/extract"
	"github.com/spigell/ats-auditor/internal/fetch"
	"github.com/spigell/ats-auditor/internal/logger"
	"github.com/spigell/ats-auditor/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptText = "Paste resume text"
	PromptFile = "Read resume from file"
	PromptURL  = "Download resume from URL"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

var errNoResumeSource = errors.New("one of --text, --file or --url is required")

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a resume against a target role and print the report as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		runAudit(cmd)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringP("role", "r", "", "target role title or full description")
	auditCmd.Flags().StringP("comp", "c", "", "target compensation, e.g. \"$250k base\"")
	auditCmd.Flags().StringP("text", "t", "", "resume as literal text")
	auditCmd.Flags().StringP("file", "f", "", "resume document (pdf, docx, html or text)")
	auditCmd.Flags().StringP("url", "u", "", "resume document URL")
	auditCmd.Flags().StringP("out", "o", "", "write the report to this file instead of stdout")
	auditCmd.Flags().String("user-id", "", "opaque user identifier copied to the report")
	auditCmd.Flags().String("application-id", "", "opaque application identifier copied to the report")
	auditCmd.Flags().String("job-pursuit-id", "", "opaque job pursuit identifier copied to the report")
	auditCmd.Flags().Duration("deadline", 0, "abort the audit after this long (default from audit.deadline)")

	viper.BindPFlag("audit.deadline", auditCmd.Flags().Lookup("deadline"))
}

func runAudit(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.AI == nil {
		logger.Fatal("ai configuration is required")
	}

	logger.Info("starting the ats-auditor", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	req, err := requestFromFlags(cmd.Flags())
	if errors.Is(err, errNoResumeSource) && isInteractive() {
		req, err = promptRequest(req)
	}
	if err != nil {
		logger.Fatal("building the audit request", zap.Error(err))
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai generator",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file in the configuration file"),
		)
	}

	auditor, err := newAuditor(generator, config, logger)
	if err != nil {
		logger.Fatal("creating the auditor", zap.Error(err))
	}

	if config.Audit != nil && config.Audit.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Audit.Deadline)
		defer cancel()
	}

	result, err := auditor.Run(ctx, req)
	if err != nil {
		logger.Fatal("audit failed", zap.Error(err))
	}

	report, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("encoding the report", zap.Error(err))
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(report))
		return
	}

	if err := os.WriteFile(out, append(report, '\n'), 0o644); err != nil {
		logger.Fatal("writing the report", zap.Error(err), zap.String("filename", out))
	}
	logger.Info("report written", zap.String("filename", out), zap.String("audit_id", result.ID))
}

// requestFromFlags builds the request from command line flags. A missing
// resume source is reported as errNoResumeSource so that the caller may ask
// for it interactively.
func requestFromFlags(flags *pflag.FlagSet) (audit.Request, error) {
	get := func(name string) string {
		value, _ := flags.GetString(name)
		return strings.TrimSpace(value)
	}

	req := audit.Request{
		TargetRole: get("role"),
		TargetComp: get("comp"),
		Links: audit.Links{
			UserID:        get("user-id"),
			ApplicationID: get("application-id"),
			JobPursuitID:  get("job-pursuit-id"),
		},
	}

	text, file, rawURL := get("text"), get("file"), get("url")

	sources := 0
	for _, v := range []string{text, file, rawURL} {
		if v != "" {
			sources++
		}
	}
	if sources == 0 {
		return req, errNoResumeSource
	}
	if sources > 1 {
		return req, errors.New("only one of --text, --file or --url may be set")
	}

	req.ResumeText = text
	req.ResumeURL = rawURL
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return req, fmt.Errorf("reading resume file: %w", err)
		}
		req.ResumeData = data
	}

	return req, req.Validate()
}

// promptRequest asks for whatever requestFromFlags could not find.
func promptRequest(req audit.Request) (audit.Request, error) {
	if req.TargetRole == "" {
		role, err := (&promptui.Prompt{Label: "Target role", Validate: notBlank}).Run()
		if err != nil {
			return req, err
		}
		req.TargetRole = strings.TrimSpace(role)
	}

	sourcePrompt := promptui.Select{
		Label: "Resume source",
		Items: []string{PromptFile, PromptURL, PromptText},
	}
	_, source, err := sourcePrompt.Run()
	if err != nil {
		return req, err
	}

	switch source {
	case PromptFile:
		path, err := (&promptui.Prompt{Label: "Path to resume", Validate: notBlank}).Run()
		if err != nil {
			return req, err
		}
		data, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return req, fmt.Errorf("reading resume file: %w", err)
		}
		req.ResumeData = data
	case PromptURL:
		raw, err := (&promptui.Prompt{Label: "Resume URL", Validate: validURL}).Run()
		if err != nil {
			return req, err
		}
		req.ResumeURL = strings.TrimSpace(raw)
	case PromptText:
		text, err := (&promptui.Prompt{Label: "Resume text", Validate: notBlank}).Run()
		if err != nil {
			return req, err
		}
		req.ResumeText = text
	default:
		return req, fmt.Errorf("invalid resume source: %s", source)
	}

	return req, req.Validate()
}

func notBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

func validURL(input string) error {
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New("an http(s) URL is required")
	}
	return nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (*gemini.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	src := secrets.Source{Name: "gemini api key", Env: geminiAPIKeyEnv}
	if cfg.Gemini != nil {
		src.Value = cfg.Gemini.APIKey
		src.File = cfg.Gemini.APIKeyFile
	}

	apiKey, err := secrets.Load(src)
	if err != nil {
		return nil, err
	}

	return gemini.NewGenerator(ctx, apiKey, logger)
}

func newAuditor(generator *gemini.Generator, config *Config, logger *zap.Logger) (*audit.Auditor, error) {
	fetchCfg := config.Fetch
	if fetchCfg == nil {
		fetchCfg = &FetchConfig{}
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:   fetchCfg.Timeout,
		UserAgent: fetchCfg.UserAgent,
		MaxBytes:  fetchCfg.MaxBytes,
	}, logger)

	strategies := extract.DefaultStrategies()
	if config.Extract != nil && len(config.Extract.Skip) > 0 {
		var err error
		if strategies, err = extract.Without(strategies, config.Extract.Skip...); err != nil {
			return nil, err
		}
	}
	logger.Debug("extraction strategies", zap.Strings("strategies", extract.Names(strategies)))

	return audit.New(generator, audit.Config{
		SynthesisModel: config.AI.SynthesisModel,
		Models:         config.AI.Models,
		CascadeDelay:   config.AI.CascadeDelay,
		MaxLogLength:   config.AI.MaxLogLength,
		Fetcher:        fetcher,
		Strategies:     strategies,
	}, logger)
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		ai := *config.AI
		gem := *config.AI.Gemini
		gem.APIKey = "***"
		ai.Gemini = &gem
		out.AI = &ai
	}
	return out
}
