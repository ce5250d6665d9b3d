// Formgen - CLI для генерации конфигураций форм через LLM.
//
// Использование:
//
//	formgen generate "анкета для записи на курс"
//	formgen chat
//	formgen extract response.txt
//	formgen templates list
//
// config.yaml ищется по --config, $FORMGEN_CONFIG, в текущей директории
// и рядом с бинарником.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appcomponents "github.com/Rainytroy/May-Quote-sub001/pkg/app"
	"github.com/Rainytroy/May-Quote-sub001/pkg/config"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// Version - версия утилиты (заполняется при сборке)
var Version = "dev"

var (
	configPath   string
	modelName    string
	debugFlag    bool
	jsonOutput   bool
	noColor      bool
	logLevel     string
	systemPrompt string
	temperature  float64
	maxTokens    int

	// cfg загружается в PersistentPreRunE
	cfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:     "formgen",
	Short:   "Generate structured form configurations with an LLM",
	Version: Version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, path, err := appcomponents.InitializeConfig(&appcomponents.DefaultConfigPathFinder{ConfigFlag: configPath})
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.App.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		if debugFlag {
			level = "debug"
		}
		if err := utils.InitLogger(utils.LogConfig{Level: level, File: cfg.App.LogFile, JSON: cfg.App.LogJSON}); err != nil {
			return err
		}
		utils.Info("Config loaded", "path", path, "command", cmd.Name())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Close()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.yaml")
	flags.StringVar(&modelName, "model", "", "Override models.default_chat")
	flags.BoolVar(&debugFlag, "debug", false, "Debug logging and JSON traces for every request")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVar(&noColor, "no-color", false, "Disable colors in output")
	flags.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error")
	flags.StringVar(&systemPrompt, "system", "", "System message sent before every prompt")
	flags.Float64Var(&temperature, "temperature", 0, "Override model temperature")
	flags.IntVar(&maxTokens, "max-tokens", 0, "Override model max tokens")

	rootCmd.AddCommand(generateCmd, chatCmd, extractCmd, templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err.Error()))
		os.Exit(1)
	}
}

// componentOptions собирает Options из флагов.
func componentOptions() appcomponents.Options {
	return appcomponents.Options{
		Model:        modelName,
		SystemPrompt: systemPrompt,
		Debug:        debugFlag,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
}
