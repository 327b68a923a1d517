// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// diauto validates and inspects automata experiment configurations before
// a training run is launched.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/devinterp-automata/pkg/config"
	"github.com/AleutianAI/devinterp-automata/pkg/logging"
	"github.com/AleutianAI/devinterp-automata/pkg/rlct"
	"github.com/AleutianAI/devinterp-automata/pkg/task"
	"github.com/AleutianAI/devinterp-automata/pkg/ux"
)

var (
	flagVerbose bool
	flagTrace   bool
	flagNoColor bool

	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "diauto",
		Short: "Configure automata experiments for local learning coefficient estimation",
		Long: `diauto resolves a raw experiment file into a fully-derived, validated
configuration: task vocabularies, model dimensions, evaluation cadence,
and the Monte-Carlo sample budget for RLCT estimation.`,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [experiment.yaml]",
		Short: "Validate an experiment file and report the derivation result",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	describeCmd = &cobra.Command{
		Use:   "describe [experiment.yaml]",
		Short: "Print every derived quantity of a validated experiment",
		Args:  cobra.ExactArgs(1),
		RunE:  runDescribe,
	}

	tasksCmd = &cobra.Command{
		Use:   "tasks",
		Short: "List the automaton task variants with their default vocabularies",
		RunE:  runTasks,
	}

	tracerShutdown func(context.Context) error
)

func main() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagTrace, "trace", false, "emit OpenTelemetry spans to stdout")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable styled output")

	rootCmd.AddCommand(validateCmd, describeCmd, tasksCmd)

	if err := rootCmd.Execute(); err != nil {
		ux.Failure("%v", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	level := logging.LevelInfo
	if flagVerbose {
		level = logging.LevelDebug
	}
	logger = logging.New(logging.Config{Level: level, Service: "diauto"}).
		With("session_id", uuid.NewString())

	if flagNoColor {
		ux.SetStyled(false)
	}

	if flagTrace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("init trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		tracerShutdown = tp.Shutdown
	}
	return nil
}

func teardown(cmd *cobra.Command, _ []string) {
	if tracerShutdown != nil {
		if err := tracerShutdown(cmd.Context()); err != nil {
			logger.Warn("trace exporter shutdown failed", "error", err)
		}
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	logger.Debug("validating experiment file", "path", path)

	cfg, err := config.Load(cmd.Context(), path)
	if err != nil {
		logger.Error("derivation failed", "path", path, "error", err)
		return err
	}

	callbacks, names, err := rlct.Assemble(cfg.RLCT)
	if err != nil {
		logger.Error("callback assembly failed", "run_name", cfg.RunName, "error", err)
		return err
	}

	logger.Info("experiment validated",
		"run_name", cfg.RunName,
		"task", cfg.Task.Type(),
		"num_samples", cfg.RLCT.NumSamples,
		"callbacks", len(callbacks),
	)
	ux.Success("%s is valid", path)
	ux.KeyValue("run_name", cfg.RunName)
	ux.KeyValue("callbacks", names)
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, names, err := rlct.Assemble(cfg.RLCT)
	if err != nil {
		return err
	}

	ux.Title("Experiment")
	ux.KeyValue("run_name", cfg.RunName)
	ux.KeyValue("model_type", cfg.ModelType)
	ux.KeyValue("tracking_enabled", cfg.WandBEnabled)

	ux.Title("Task")
	ux.KeyValue("dataset_type", cfg.Task.Type())
	ux.KeyValue("dataset_file", task.DatasetFilename(cfg.Task))
	ux.KeyValue("vocab_size", cfg.Task.VocabSize())
	ux.KeyValue("output_vocab_size", cfg.Task.OutputVocabSize())
	ux.KeyValue("population_bound", fmt.Sprintf("%g", task.PopulationSize(cfg.Task)))

	ux.Title("Model dimensions")
	ux.KeyValue("block_size", cfg.NanoGPT.BlockSize)
	ux.KeyValue("n_layers", cfg.NanoGPT.NLayers)
	ux.KeyValue("embed_dim", cfg.NanoGPT.EmbedDim)

	ux.Title("Training")
	ux.KeyValue("num_training_iter", cfg.NumTrainingIter)
	ux.KeyValue("eval_frequency", cfg.EvalFrequency)
	ux.KeyValue("num_epochs", cfg.NumEpochs)

	ux.Title("RLCT sampling")
	ux.KeyValue("sampling_method", cfg.RLCT.SamplingMethod)
	ux.KeyValue("num_chains", cfg.RLCT.NumChains)
	ux.KeyValue("num_draws", cfg.RLCT.NumDraws)
	ux.KeyValue("num_samples", cfg.RLCT.NumSamples)
	ux.KeyValue("data_dir", cfg.RLCT.DataDir)
	ux.KeyValue("callbacks", names)
	return nil
}

func runTasks(cmd *cobra.Command, _ []string) error {
	ux.Title("Automaton task variants")
	for _, t := range task.Types() {
		spec, err := task.Resolve(t, nil)
		if err != nil {
			return fmt.Errorf("resolve %s defaults: %w", t, err)
		}
		ux.KeyValue(string(t), fmt.Sprintf("vocab=%d output_vocab=%d",
			spec.VocabSize(), spec.OutputVocabSize()))
	}
	return nil
}
