// Command orderlogd runs the order-log ingestion daemon: it watches the
// configured log family for new lines, correlates them against active
// orders, and records matches in the audit store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ichar/orderlogd/internal/adapter"
	"github.com/ichar/orderlogd/internal/alarm"
	"github.com/ichar/orderlogd/internal/audit"
	"github.com/ichar/orderlogd/internal/config"
	"github.com/ichar/orderlogd/internal/correlate"
	"github.com/ichar/orderlogd/internal/logging"
	"github.com/ichar/orderlogd/internal/logline"
	"github.com/ichar/orderlogd/internal/opsdb"
	"github.com/ichar/orderlogd/internal/orders"
	"github.com/ichar/orderlogd/internal/seen"
	"github.com/ichar/orderlogd/internal/service"
	"github.com/ichar/orderlogd/internal/tailer"
	"github.com/ichar/orderlogd/internal/textdecode"
	"github.com/ichar/orderlogd/internal/watcher"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		emit       bool
		once       bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "orderlogd",
		Short: "Watch order log families and correlate lines to active orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, emit, once, limit)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "orderlogd.conf", "path to the key::value config file")
	cmd.Flags().BoolVar(&emit, "emit", false, "run the bootstrap sweep once and exit instead of observing")
	cmd.Flags().BoolVar(&once, "once", false, "limit the bootstrap sweep (--emit) to a fixed number of matched orders")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum orders to process when --once is set (0 = config default)")

	return cmd
}

func run(ctx context.Context, configPath string, emit, once bool, limitFlag int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New(logging.Flags{
		Debug:         cfg.GetBool("debug"),
		DeepDebug:     cfg.GetBool("deepdebug"),
		Trace:         cfg.GetBool("trace"),
		ExistsTrace:   cfg.GetBool("existstrace"),
		DisableOutput: cfg.GetBool("disableoutput"),
		ObserverTrace: cfg.GetBool("observertrace"),
	})

	a := newAdapter(cfg)

	opsEP := opsdb.Endpoint{
		Server:   cfg.GetString("ops_server"),
		User:     cfg.GetString("ops_user"),
		Password: cfg.GetString("ops_password"),
		Database: cfg.GetString("ops_database"),
		Timeout:  time.Duration(cfg.GetInt("ops_timeout", 30)) * time.Second,
	}
	opsClient := opsdb.New(opsEP, log)
	defer opsClient.Close()

	cache := orders.New(opsClient, cfg.Complete())

	auditEP := audit.Endpoint{
		Server:   cfg.GetString("audit_server"),
		User:     cfg.GetString("audit_user"),
		Password: cfg.GetString("audit_password"),
		Database: cfg.GetString("audit_database"),
		Timeout:  time.Duration(cfg.GetInt("audit_timeout", 30)) * time.Second,
	}
	auditClient := audit.New(auditEP, log)
	defer auditClient.Close()

	engine := correlate.NewEngine(a, cache, auditClient, log, unresolvedFromConfig(cfg))
	engine.Aliases = cfg.GetPipeList("alias")
	engine.CaseInsensitiveFilenameKey = cfg.GetBool("case_insensitive")

	if err := bindIdentifiers(ctx, engine, auditClient, cfg, a); err != nil {
		log.Error("resolve source/module/log ids: %v", err)
	}

	var notifier *alarm.Notifier
	if mailKeys := cfg.GetPipeList("mailkeys"); len(mailKeys) > 0 {
		sender := alarm.NewSender(alarm.SMTPConfig{
			Host: cfg.GetString("smtp_host"),
			Port: cfg.GetInt("smtp_port", 25),
			From: cfg.GetString("smtp_from"),
		})
		var customer *alarm.CustomerRecipient
		if raw, ok := cfg.Get("alarm_customer"); ok {
			if c, ok := alarm.ParseCustomerRecipient(raw); ok {
				customer = &c
			}
		}
		notifier = alarm.NewNotifier(sender, mailKeys, customer, cfg.GetColonList("suppressed"))
		engine.OnNew = func(item *logline.Item, outcome audit.Outcome) {
			if err := notifier.Notify(ctx, item, a.AlarmSeverities(), outcome.Kind); err != nil {
				log.Error("alarm notify: %v", err)
			}
		}
	}

	near, far := cfg.DeltaDateFrom()
	if _, err := cache.Refresh(ctx, time.Now(), near, false); err != nil {
		log.Error("initial order refresh: %v", err)
	}

	seenPath := cfg.GetString("seen")
	if stamp, ok, err := seen.Read(seenPath); err != nil {
		log.Error("read seen marker: %v", err)
	} else if ok {
		cfg.Touch(stamp)
	}

	limit := limitFlag
	if limit == 0 {
		limit = cfg.GetInt("limit", 0)
	}
	if !once {
		limit = 0
	}

	root := cfg.GetString("root")
	suppressed := cfg.GetColonList("suppressed")

	if emit {
		em := watcher.NewEmitter(root, a, tailer.New(), textdecode.Named(cfg.GetString("encoding")), engine, log, limit)
		matched, err := em.Run(ctx, suppressed, engine.Aliases)
		if err != nil {
			return fmt.Errorf("emitter sweep: %w", err)
		}
		log.Out("bootstrap sweep matched %d lines", matched)
		return persistSeen(seenPath, log)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := service.New(root, a, cache, auditClient, engine, notifier, log,
		textdecode.Named(cfg.GetString("encoding")),
		time.Duration(cfg.GetInt("restart_timeout", 300))*time.Second,
		cfg.GetBool("watch_everything"))
	sup.NearDelta = near
	sup.FarDelta = far

	summary, err := sup.Run(runCtx)
	log.Out("%s", summary.String())
	if err != nil {
		return err
	}
	return persistSeen(seenPath, log)
}

func persistSeen(path string, log *logging.Logger) error {
	if path == "" {
		return nil
	}
	stamp := time.Now().Format("20060102")
	if err := seen.Write(path, stamp); err != nil {
		log.Error("write seen marker: %v", err)
		return err
	}
	return nil
}

func newAdapter(cfg *config.Config) adapter.Adapter {
	switch cfg.CType() {
	case "sdc":
		return adapter.NewSDC(nil)
	case "exchange":
		return adapter.NewExchange()
	default:
		return adapter.NewBankperso()
	}
}

// bindIdentifiers runs the audit client's Check* call chain once at
// startup, resolving the (source, module, log) id triple the engine
// needs for every RegisterMessage call.
func bindIdentifiers(ctx context.Context, engine *correlate.Engine, auditClient *audit.Client, cfg *config.Config, a adapter.Adapter) error {
	ip := cfg.GetString("ip")
	if ip == "" {
		if host, err := os.Hostname(); err == nil {
			ip = host
		}
	}

	sourceOut, err := auditClient.CheckSource(ctx, cfg.GetString("root"), ip, cfg.CType())
	if err != nil {
		return fmt.Errorf("check source: %w", err)
	}
	moduleOut, err := auditClient.CheckModule(ctx, sourceOut.MessageID, a.Name(), cfg.GetString("root"))
	if err != nil {
		return fmt.Errorf("check module: %w", err)
	}
	logOut, err := auditClient.CheckLog(ctx, sourceOut.MessageID, moduleOut.MessageID, cfg.CType())
	if err != nil {
		return fmt.Errorf("check log: %w", err)
	}

	engine.BindIdentifiers(sourceOut.MessageID, moduleOut.MessageID, logOut.MessageID)
	return nil
}

func unresolvedFromConfig(cfg *config.Config) correlate.Unresolved {
	if raw, ok := cfg.Get("max_unresolved_lines"); ok {
		var low, high, step int
		if n, err := fmt.Sscanf(raw, "%d:%d:%d", &low, &high, &step); err == nil && n == 3 {
			return correlate.Unresolved{Low: low, High: high, Step: step}
		}
	}
	return correlate.DefaultUnresolved
}
