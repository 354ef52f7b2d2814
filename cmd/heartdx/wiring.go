package main

import (
	"context"
	"fmt"
	"io"

	kafkafwd "github.com/PabloGalante/heartdx/internal/adapters/broker/kafka"
	"github.com/PabloGalante/heartdx/internal/adapters/identity/local"
	"github.com/PabloGalante/heartdx/internal/adapters/llm"
	"github.com/PabloGalante/heartdx/internal/adapters/scoring"
	firestorestore "github.com/PabloGalante/heartdx/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/heartdx/internal/adapters/storage/memory"
	mongostore "github.com/PabloGalante/heartdx/internal/adapters/storage/mongo"
	"github.com/PabloGalante/heartdx/internal/app/auth"
	"github.com/PabloGalante/heartdx/internal/app/diagnosis"
	"github.com/PabloGalante/heartdx/internal/app/events"
	"github.com/PabloGalante/heartdx/internal/app/feedback"
	"github.com/PabloGalante/heartdx/internal/app/navigation"
	"github.com/PabloGalante/heartdx/internal/config"
	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

// app holds one process worth of wired services.
type app struct {
	cfg      *config.Config
	out      io.Writer
	auth     *auth.Manager
	guard    *navigation.Guard
	diag     *diagnosis.Service
	feedback *feedback.Coordinator
	scoring  *scoring.Client
	bus      *events.Bus
	retries  int

	closers []func()
}

type stores struct {
	profiles  domain.ProfileStore
	diagnoses domain.DiagnosisStore
	patients  domain.PatientStore
	alerts    domain.AlertStore
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (a *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := observability.Logger()

	a = &app{cfg: cfg, out: out}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	idp, err := a.openIdentity(ctx)
	if err != nil {
		return nil, err
	}

	a.scoring = scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout, scoring.WithRateLimit(cfg.ScoringRPS))
	a.bus = events.NewBus()
	a.feedback = feedback.NewCoordinator()

	if len(cfg.KafkaBrokers) > 0 {
		log.Info("forwarding emergency alerts to kafka", "topic", cfg.KafkaTopic)
		fwd := kafkafwd.NewAlertForwarder(cfg.KafkaBrokers, cfg.KafkaTopic)
		detach := fwd.Attach(a.bus)
		a.closers = append(a.closers, func() {
			detach()
			_ = fwd.Close()
		})
	}
	// handlers must finish before the forwarder closes
	a.closers = append(a.closers, a.bus.Wait)

	var diagOpts []diagnosis.Option
	switch cfg.Explainer {
	case config.ExplainerMock:
		diagOpts = append(diagOpts, diagnosis.WithExplainer(llm.NewMockExplainer()))
	case config.ExplainerVertex:
		ex, err := llm.NewVertexExplainer(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			return nil, err
		}
		diagOpts = append(diagOpts, diagnosis.WithExplainer(ex))
	}

	a.auth = auth.NewManager(idp, st.profiles, auth.WithLoginTimeout(cfg.LoginTimeout))
	a.auth.Start()
	a.closers = append(a.closers, a.auth.Close)

	a.guard = navigation.NewGuard(a.auth)
	a.diag = diagnosis.NewService(a.scoring, a.auth, st.diagnoses, st.patients, st.alerts, a.bus, diagOpts...)
	return a, nil
}

func (a *app) openStores(ctx context.Context) (stores, error) {
	log := observability.Logger()

	switch a.cfg.StoreBackend {
	case config.StoreFirestore:
		log.Info("using firestore store", "project", a.cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, a.cfg.GCPProjectID)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, func() { _ = fs.Close() })
		// 1 store, implements 4 interfaces
		return stores{profiles: fs, diagnoses: fs, patients: fs, alerts: fs}, nil

	case config.StoreMongo:
		log.Info("using mongo store", "database", a.cfg.MongoDB)
		ms, err := mongostore.NewStore(ctx, a.cfg.MongoURI, a.cfg.MongoDB)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, func() { _ = ms.Close(context.Background()) })
		return stores{profiles: ms, diagnoses: ms, patients: ms, alerts: ms}, nil

	default:
		log.Debug("using in-memory store")
		return stores{
			profiles:  memstore.NewProfileStore(),
			diagnoses: memstore.NewDiagnosisStore(),
			patients:  memstore.NewPatientStore(),
			alerts:    memstore.NewAlertStore(),
		}, nil
	}
}

func (a *app) openIdentity(ctx context.Context) (*local.Provider, error) {
	db, err := local.Open(a.cfg.IdentityDSN)
	if err != nil {
		return nil, fmt.Errorf("opening identity store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}
	if err := local.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrating identity store: %w", err)
	}

	tokens := local.NewTokenStore(a.cfg.TokenFile, a.cfg.TokenSecret)
	idp := local.NewProvider(ctx, local.NewAccountRepository(db), tokens)
	a.closers = append(a.closers, idp.Close)
	return idp, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
