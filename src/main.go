package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xleiu/VenueSearch/src/config"
	"github.com/xleiu/VenueSearch/src/db"
	"github.com/xleiu/VenueSearch/src/demo"
	"github.com/xleiu/VenueSearch/src/foursquare"
	"github.com/xleiu/VenueSearch/src/handlers"
	"github.com/xleiu/VenueSearch/src/location"
	"github.com/xleiu/VenueSearch/src/loop"
	"github.com/xleiu/VenueSearch/src/presenter"
	"github.com/xleiu/VenueSearch/src/token"
	"github.com/xleiu/VenueSearch/src/types"
)

type locationProvider interface {
	types.LocationPort
	SetDelegate(types.LocationDelegate)
}

func main() {
	cfg := config.New()

	configPath, err := cfg.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if cfg.HashPassword != "" {
		hash, err := token.HashPassword(cfg.HashPassword)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if err := cfg.LoadFile(configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if _, err := cfg.ParseFlags(os.Args[1:]); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := cfg.LoadEnv(".env"); err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	search, cleanup, err := newVenueBackend(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	queue := loop.New()
	go queue.Run(ctx)

	provider, remote := newLocationProvider(cfg)

	categories := make([]types.Category, 0, len(cfg.Categories))
	for _, c := range cfg.Categories {
		categories = append(categories, types.Category(c))
	}
	venuePresenter := presenter.New(loop.Search{Queue: queue, Next: search}, provider, categories...)
	provider.SetDelegate(loop.Delegate{Queue: queue, Next: venuePresenter})

	view := handlers.NewWebView()
	if err := queue.Do(ctx, func() { venuePresenter.AttachView(view) }); err != nil {
		log.Fatal(err)
	}

	issuer, err := token.NewIssuer([]byte(cfg.Auth.SigningKey), cfg.Auth.Users,
		time.Duration(cfg.Auth.TTLMinutes)*time.Minute)
	if err != nil {
		log.Fatal(err)
	}

	tmpl, err := handlers.LoadTemplate(cfg.Template)
	if err != nil {
		log.Fatal(err)
	}

	if err := serve(ctx, cfg, &handlers.Server{
		Queue:     queue,
		Presenter: venuePresenter,
		View:      view,
		Device:    remote,
	}, issuer, tmpl); err != nil {
		log.Fatal(err)
	}
}

func newVenueBackend(cfg *config.Config) (types.VenueSearchPort, func(), error) {
	switch cfg.Backend {
	case config.BackendFoursquare:
		return foursquare.NewClient(cfg.Foursquare, nil), func() {}, nil

	case config.BackendElastic:
		client, err := db.NewElasticStore(cfg.Elastic)
		if err != nil {
			return nil, nil, err
		}
		if err := client.CreateIndexWithMapping(cfg.Elastic.Index, cfg.Elastic.Schema); err != nil {
			client.Client.Stop()
			return nil, nil, err
		}
		if cfg.Elastic.Data != "" {
			if err := client.LoadData(cfg.Elastic.Data); err != nil {
				log.Printf("loading %s: %s", cfg.Elastic.Data, err)
			}
		}
		return client, client.Client.Stop, nil

	default:
		delay := time.Duration(cfg.Demo.DelayMillis) * time.Millisecond
		return demo.VenueService{Delay: delay}, func() {}, nil
	}
}

func newLocationProvider(cfg *config.Config) (locationProvider, *location.Remote) {
	if cfg.Location == config.LocationRemote {
		remote := location.NewRemote()
		return remote, remote
	}
	status := types.NotDetermined
	if !cfg.Static.AutoGrant {
		status = types.AuthorizedWhenInUse
	}
	fix := types.Coordinate{Lat: cfg.Static.Lat, Lon: cfg.Static.Lon}
	return location.NewStatic(fix, status, cfg.Static.AutoGrant), nil
}

func serve(ctx context.Context, cfg *config.Config, s *handlers.Server, issuer *token.Issuer, tmpl *template.Template) error {
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	s.Routes(r, issuer.JwtMiddleware(), issuer.GetToken, tmpl)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Server started at %s (backend %s, location %s)", cfg.Addr, cfg.Backend, cfg.Location)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
