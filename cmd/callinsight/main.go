package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"callinsight/pkg/analysis"
	"callinsight/pkg/command"
	"callinsight/pkg/config"
	"callinsight/pkg/diarization"
	"callinsight/pkg/http"
	"callinsight/pkg/messaging"
	"callinsight/pkg/metrics"
	"callinsight/pkg/pipeline"
	"callinsight/pkg/transcript"
	"callinsight/pkg/version"
)

var logger = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "callinsight",
		Short: "Call transcript alignment, merging and compliance analysis",
		Long: "callinsight turns diarized ASR output into speaker-attributed " +
			"conversation records with required-phrase, sensitive-data and " +
			"prohibited-word findings.",
		SilenceUsage: true,
	}

	root.AddCommand(newAnalyzeCommand(), newServeCommand(), newVersionCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp loads environment configuration and the phrase file, and
// configures the shared logger.
func loadApp() (*config.Config, *config.Phrases, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return nil, nil, err
	}
	cfg.ConfigureLogger(logger)

	phrases, err := config.LoadPhrases(logger, cfg.Phrases.Path)
	if err != nil {
		return nil, nil, err
	}

	return cfg, phrases, nil
}

func newAnalyzeCommand() *cobra.Command {
	var (
		segmentsPath    string
		diarizationPath string
		outputPath      string
		transcriptPath  string
		commandsExpr    string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one conversation from segment and diarization files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, phrases, err := loadApp()
			if err != nil {
				return err
			}

			segments, err := readSegments(segmentsPath)
			if err != nil {
				return err
			}
			annotation, err := readDiarization(diarizationPath)
			if err != nil {
				return err
			}

			p := pipeline.New(logger, cfg, phrases, analysis.NewLexiconAnalyzer())
			result := p.Process(segments, annotation)

			if transcriptPath != "" {
				content := strings.Join(result.Lines, "\n") + "\n"
				if err := os.WriteFile(transcriptPath, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write transcript: %w", err)
				}
			}

			var report []string
			if commandsExpr != "" {
				commands, err := command.ParseAll(commandsExpr)
				if err != nil {
					return err
				}
				executor := command.NewExecutor(result.Records, result.Attributes, result.Sentiments)
				for _, c := range commands {
					out, err := executor.Execute(c)
					if err != nil {
						return err
					}
					report = append(report, out)
				}
			}

			return writeResult(outputPath, result, report)
		},
	}

	cmd.Flags().StringVar(&segmentsPath, "segments", "", "JSON file with ASR segments [{start,end,text}]")
	cmd.Flags().StringVar(&diarizationPath, "diarization", "", "JSON file with diarization entries [{start,end,speaker}]")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the JSON result here instead of stdout")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Also write the serialized transcript lines to this file")
	cmd.Flags().StringVar(&commandsExpr, "commands", "", "Report commands to run, separated by '|'")
	cmd.MarkFlagRequired("segments")
	cmd.MarkFlagRequired("diarization")

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, phrases, err := loadApp()
			if err != nil {
				return err
			}

			if cfg.HTTP.EnableMetrics {
				metrics.Init(logger)
			}

			p := pipeline.New(logger, cfg, phrases, analysis.NewLexiconAnalyzer())

			amqpClient := messaging.NewAMQPClient(logger, messaging.AMQPConfig{
				URL:       cfg.Messaging.URL,
				QueueName: cfg.Messaging.QueueName,
			})
			if amqpClient.Enabled() {
				if err := amqpClient.Connect(); err != nil {
					logger.WithError(err).Warn("AMQP broker unavailable, records will not be published")
				} else {
					p.AddListener(amqpClient)
					defer amqpClient.Disconnect()
				}
			}

			server := http.NewServer(logger, cfg.HTTP, p)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(ctx)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.WithField("signal", sig.String()).Info("Shutting down")
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("callinsight %s\n", version.Version)
		},
	}
}

type segmentInput struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type diarizationInput struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

func readSegments(path string) ([]transcript.Segment, error) {
	var inputs []segmentInput
	if err := readJSONFile(path, &inputs); err != nil {
		return nil, err
	}

	segments := make([]transcript.Segment, 0, len(inputs))
	for i, in := range inputs {
		seg, err := transcript.NewSegment(in.Start, in.End, in.Text)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

func readDiarization(path string) (*diarization.Annotation, error) {
	var inputs []diarizationInput
	if err := readJSONFile(path, &inputs); err != nil {
		return nil, err
	}

	entries := make([]diarization.Entry, 0, len(inputs))
	for i, in := range inputs {
		iv, err := transcript.NewInterval(in.Start, in.End)
		if err != nil {
			return nil, fmt.Errorf("diarization entry %d: %w", i, err)
		}
		entries = append(entries, diarization.Entry{Interval: iv, Speaker: in.Speaker})
	}
	return diarization.New(entries)
}

func readJSONFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeResult(path string, result *pipeline.Result, report []string) error {
	payload := struct {
		*pipeline.Result
		Report []string `json:"report,omitempty"`
	}{Result: result, Report: report}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}
