package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxline/voxline/agent/contract"
	dispatchx "github.com/voxline/voxline/agent/dispatch"
	llmx "github.com/voxline/voxline/agent/llm"
	promptx "github.com/voxline/voxline/agent/prompt"
	statex "github.com/voxline/voxline/agent/state"
	toolx "github.com/voxline/voxline/agent/tool"
	voicex "github.com/voxline/voxline/agent/voice"
	"github.com/voxline/voxline/pkg/auditlog"
	"github.com/voxline/voxline/pkg/callstore"
	configx "github.com/voxline/voxline/pkg/config"
	livekitx "github.com/voxline/voxline/pkg/livekit"
	_ "github.com/voxline/voxline/pkg/logger/autoload"
	openaix "github.com/voxline/voxline/pkg/openai"
	sheetsx "github.com/voxline/voxline/pkg/sheets"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "dispatch":
		runDispatch(ctx)
	case "agent":
		runAgent(ctx)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <dispatch|agent>\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "  dispatch  read the customer sheet and place outbound calls")
	fmt.Fprintln(os.Stderr, "  agent     run one call agent (job metadata from VOXLINE_JOB_METADATA)")
}

func runDispatch(ctx context.Context) {
	sheetsCfg := configx.MustNew[sheetsx.Config]("SHEETS")
	source := sheetsx.MustNew(ctx, *sheetsCfg)

	lkCfg := configx.MustNew[livekitx.Config]("LIVEKIT")
	platform := livekitx.MustNew(*lkCfg)

	dispatchCfg := configx.MustNew[dispatchx.Config]("DISPATCH")

	opts := []dispatchx.Option{}
	storeCfg := configx.MustNew[callstore.Config]("CALLSTORE")
	if storeCfg.DSN != "" {
		store, err := callstore.New(*storeCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open call outcome store")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("could not close call outcome store")
			}
		}()
		opts = append(opts, dispatchx.WithOutcomeStore(store))
	}

	dispatcher, err := dispatchx.New(source, platform, *dispatchCfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build dispatcher")
	}

	if err := dispatcher.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("dispatch run failed")
	}
	log.Info().Msg("dispatch run finished")
}

func runAgent(ctx context.Context) {
	room := os.Getenv("VOXLINE_JOB_ROOM")
	if room == "" {
		room = fmt.Sprintf("console_%d", time.Now().Unix())
	}

	var customer *contractx.CustomerRecord
	if raw := os.Getenv("VOXLINE_JOB_METADATA"); raw != "" {
		var meta contractx.JobMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			log.Error().Err(err).Msg("could not parse job metadata")
		} else {
			customer = &meta.CustomerData
		}
	} else {
		log.Warn().Msg("no job metadata provided")
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENAI")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	conversationCfg := llmCfg.OpenAIFor(llmx.RoleConversation)
	chatModel, err := conversationCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build chat model")
	}
	replies := openaix.MustNewClient(llmCfg.OpenAIFor(llmx.RoleReply))

	lkCfg := configx.MustNew[livekitx.Config]("LIVEKIT")
	platform := livekitx.MustNew(*lkCfg)

	sheetsCfg := configx.MustNew[sheetsx.Config]("SHEETS")
	source := sheetsx.MustNew(ctx, *sheetsCfg)

	auditCfg := configx.MustNew[auditlog.Config]("AUDIT")
	trail, err := auditlog.Open(*auditCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open audit log")
	}
	defer func() {
		if err := trail.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close audit log")
		}
	}()

	executor := toolx.NewExecutor(source, trail, contractx.DefaultColumnMap(), sheetsCfg.SheetName)
	speech := voicex.NewConsoleSession(os.Stdin, os.Stdout)

	agent, err := voicex.New(ctx, chatModel, executor, replies, platform, speech, trail, promptx.LoadPromptSet())
	if err != nil {
		log.Fatal().Err(err).Msg("could not build call agent")
	}

	sess := statex.NewCallSession(room, customer, time.Now())
	if err := agent.Run(ctx, sess); err != nil {
		log.Error().Err(err).Msg("call ended with error")
	}
}
