package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/samirrijal/maptrace/internal/adapters/memory"
	natsadapter "github.com/samirrijal/maptrace/internal/adapters/nats"
	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/export"
	"github.com/samirrijal/maptrace/internal/core/fragment"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
	"github.com/samirrijal/maptrace/internal/core/usecases"
	"github.com/samirrijal/maptrace/internal/pkg/config"
	"github.com/samirrijal/maptrace/internal/pkg/logging"
)

const usage = `usage: pathtool <command> [args]

commands:
  encode LAT,LON [LAT,LON ...]     encode points into a path string
  decode PATH                      print the points of a path string
  measure PATH [ZOOM]              print the measurement as JSON
  export PATH geojson|kml|polyline write the path in an exchange format
  fragment TEXT                    print the normalized fragment and its keys
  watch [DURABLE]                  log fragment changes from NATS`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("maptrace-pathtool")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	distance := usecases.NewDistanceService(
		usecases.NewFragmentService(memory.NewFragmentStore(), nil),
		nil,
		usecases.DistanceOptions{
			Strings:     cfg.Distance.Strings,
			DefaultZoom: cfg.Distance.DefaultZoom,
		},
	)

	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "encode":
		err = runEncode(args)
	case "decode":
		err = runDecode(args)
	case "measure":
		err = runMeasure(ctx, distance, args)
	case "export":
		err = runExport(ctx, distance, args)
	case "fragment":
		err = runFragment(args)
	case "watch":
		err = runWatch(cfg.NATS.URL, args)
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func runEncode(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no points given")
	}
	path := make(domain.Path, 0, len(args))
	for _, a := range args {
		lat, lon, ok := strings.Cut(a, ",")
		if !ok {
			return fmt.Errorf("point %q: want LAT,LON", a)
		}
		la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
		if err != nil {
			return fmt.Errorf("point %q: %w", a, err)
		}
		lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
		if err != nil {
			return fmt.Errorf("point %q: %w", a, err)
		}
		path = append(path, domain.GeoPoint{Lat: la, Lon: lo})
	}
	fmt.Println(pathcodec.Encode(path))
	return nil
}

func runDecode(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("want exactly one path")
	}
	path, err := pathcodec.Decode(args[0])
	if err != nil {
		return err
	}
	for _, p := range path {
		fmt.Printf("%.6f,%.6f\n", p.Lat, p.Lon)
	}
	return nil
}

func runMeasure(ctx context.Context, svc *usecases.DistanceService, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("want PATH [ZOOM]")
	}
	zoom := svc.DefaultZoom()
	if len(args) == 2 {
		z, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("zoom: %w", err)
		}
		zoom = z
	}
	m, err := svc.MeasureEncoded(ctx, args[0], zoom)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func runExport(ctx context.Context, svc *usecases.DistanceService, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("want PATH FORMAT")
	}
	format, err := export.ParseFormat(args[1])
	if err != nil {
		return err
	}
	out, err := svc.Export(ctx, args[0], format, svc.DefaultZoom(), "path")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runFragment(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("want exactly one fragment")
	}
	st := fragment.Parse(args[0])
	fmt.Println(st.String())
	for _, k := range st.Keys() {
		e, _ := st.Get(k)
		if e.Flag {
			fmt.Printf("  %s\n", k)
			continue
		}
		fmt.Printf("  %s = %s\n", k, e.Value)
	}
	return nil
}

// runWatch follows the fragment change stream until interrupted.
func runWatch(url string, args []string) error {
	durable := ""
	if len(args) > 0 {
		durable = args[0]
	}

	nc, err := natsadapter.RawConn(url)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer nc.Drain()

	sub, err := natsadapter.NewSubscriber(nc)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = sub.SubscribeChanges(ctx, durable, func(ctx context.Context, c *domain.FragmentChange) error {
		slog.Info("fragment changed",
			"session", c.Session,
			"source", c.Source,
			"keys", fragment.Parse(c.Fragment).Keys(),
			"at", c.At,
		)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("watching fragment changes", "url", url, "durable", durable)
	<-ctx.Done()
	slog.Info("stopped")
	return nil
}
