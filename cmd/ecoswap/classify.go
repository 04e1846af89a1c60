package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecoswap/backend/internal/app"
	"github.com/ecoswap/backend/internal/domain"
	"github.com/ecoswap/backend/internal/infrastructure/settings"
	"github.com/ecoswap/backend/internal/usecase"
)

var (
	classifyMaterial string
	classifyWaitLate bool
)

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyMaterial, "material", "", "Material column of the item (optional)")
	classifyCmd.Flags().BoolVar(&classifyWaitLate, "wait-late", false, "Wait for a remote verdict that missed the interactive deadline")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <description...>",
	Short: "Classify an item description with the local heuristic and the race engine",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	product := domain.NewProductRecord("", strings.Join(args, " "), classifyMaterial)

	local := usecase.NewLocalClassifier()
	printHeading(out, "local heuristic")
	printVerdict(out, local.Classify(product))

	var remote domain.Classifier
	if client := app.NewClassifierClient(rt.cfg.Classifier, verbose || rt.cfg.Server.IsDevelopment(), rt.logger); client != nil {
		remote = client
	}
	engine := usecase.NewRaceEngine(local, remote, nil, settings.Static(settings.FromViper(rt.viper)), usecase.RaceEngineConfig{
		InteractiveDeadline: rt.cfg.Classifier.InteractiveDeadline,
		BackgroundDeadline:  rt.cfg.Classifier.BackgroundDeadline,
		CacheTTL:            rt.cfg.Cache.TTL,
		Logger:              rt.logger,
	})

	start := time.Now()
	outcome := engine.Classify(cmd.Context(), product)
	printHeading(out, "race (%s, %s)", outcome.Source, time.Since(start).Round(time.Millisecond))
	printVerdict(out, outcome.Verdict)

	if outcome.Late == nil || !classifyWaitLate {
		return nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Classifier.BackgroundDeadline)
	defer cancel()
	select {
	case v, ok := <-outcome.Late:
		if !ok {
			faintColor.Fprintln(out, "no late verdict with alternatives")
			return nil
		}
		printHeading(out, "late remote verdict")
		printVerdict(out, v)
	case <-ctx.Done():
		fmt.Fprintln(out, "late verdict did not arrive in time")
	}
	return nil
}
