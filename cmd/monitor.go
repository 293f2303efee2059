package main

import (
	"time"

	"usage-mail-llm/internal/alert"
	"usage-mail-llm/internal/checkpoint"
	"usage-mail-llm/internal/config"
	"usage-mail-llm/internal/console"
	imapclient "usage-mail-llm/internal/imap"
	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/monitor"
	"usage-mail-llm/internal/sheet"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll the inbox for usage reports, extract them with the LLM and append them to the spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(cfg); err != nil {
				return err
			}
			for _, w := range config.Warnings(cfg) {
				logging.Log.Warn(w)
			}
			startDate, err := config.StartDate(cfg)
			if err != nil {
				return err
			}

			generator, err := newLLMClient("")
			if err != nil {
				return err
			}

			out := console.Std()
			store := checkpoint.NewStore(cfg.Checkpoint.Path)
			notifier := alert.NewNotifier(cfg.Alert, cfg.Extraction.Threshold, alert.NewSMTPSender(cfg.SMTP), out)

			processor := monitor.NewProcessor(cfg, startDate, monitor.Deps{
				NewClient:  func() imapclient.Client { return imapclient.NewStandardClient() },
				Generator:  generator,
				Writer:     sheet.NewWriter(cfg.Sheet.Path, cfg.Sheet.Sheet, cfg.Sheet.Mode),
				Alerter:    notifier,
				Checkpoint: store,
				Printer:    out,
			})
			runner := monitor.NewRunner(processor, monitor.Schedule(cfg.Email))

			since, err := store.LoadOr(startDate)
			if err != nil {
				return err
			}
			out.Banner("Inbox monitor + LLM + spreadsheet (Ctrl+C to stop)")
			out.Note("Monitoring " + cfg.Email.TargetSender + " from " + since.Format(time.RFC3339))
			logging.Log.Infof("Started monitoring from %s, model %s, style %s", since.Format(time.RFC3339), generator.Model(), cfg.Extraction.Style)

			if once {
				runner.RunOnce(cmd.Context())
				return nil
			}
			return runner.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return cmd
}
