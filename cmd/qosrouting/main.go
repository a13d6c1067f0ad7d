package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"qosrouting/compare"
	"qosrouting/config"
	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/dispatcher"
	"qosrouting/topology"
)

// log init
func init() {
	logDir := "./logs"
	os.MkdirAll(logDir, 0755)

	fileLogger := &lumberjack.Logger{
		Filename:   logDir + "/qosrouting.log",
		MaxSize:    100,  // MB
		MaxBackups: 7,    // Keep 7 old log files
		MaxAge:     30,   // Days
		Compress:   true, // Compress old log files
	}

	multiWriter := io.MultiWriter(os.Stdout, fileLogger)
	log.SetOutput(multiWriter)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	log.SetLevel(log.InfoLevel)

	log.Infof("Logging initialized: file=%s/qosrouting.log, stdout=enabled", logDir)
}

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading configuration failed, err:%v", err)
			return
		}
		cfg = loaded
	} else {
		log.Warnf("no config file given, running with defaults")
		cfg = config.Default()
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.Warnf("unknown log level %q, staying at info", cfg.LogLevel)
	} else {
		log.SetLevel(level)
	}

	g, demands, err := buildTopology(cfg)
	if err != nil {
		log.Fatalf("building topology failed, err:%v", err)
		return
	}
	log.Infof("topology ready, nodes:%d, edges:%d", len(g.Nodes), g.EdgeCount())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Infof("received signal, cancelling run")
		cancel()
	}()

	weights := cfg.WeightVector()
	params := cfg.Params()

	for _, d := range demands {
		if len(cfg.Compare) > 0 {
			runComparison(ctx, g, d, weights, cfg.Compare, params)
		} else {
			runSingle(ctx, g, d, weights, cfg.Algorithm, params)
		}
	}
}

func buildTopology(cfg *config.Config) (*common.Graph, []common.Demand, error) {
	top := cfg.Topology
	if top.NodeFile != "" && top.EdgeFile != "" {
		g, err := topology.LoadCSV(top.NodeFile, top.EdgeFile)
		if err != nil {
			return nil, nil, err
		}
		demands := []common.Demand{{
			Source:    cfg.Demand.Source,
			Target:    cfg.Demand.Target,
			Bandwidth: cfg.Demand.Bandwidth,
		}}
		if top.DemandFile != "" {
			loaded, err := topology.LoadDemandsCSV(top.DemandFile)
			if err != nil {
				return nil, nil, err
			}
			demands = loaded
		}
		return g, demands, nil
	}

	g, err := topology.Generate(top.Nodes, top.EdgeProbability, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	demand := common.Demand{
		Source:    cfg.Demand.Source,
		Target:    cfg.Demand.Target,
		Bandwidth: cfg.Demand.Bandwidth,
	}
	if !g.HasNode(demand.Source) || !g.HasNode(demand.Target) || demand.Source == demand.Target {
		ids := g.NodeIDs()
		demand.Source = ids[0]
		demand.Target = ids[len(ids)-1]
		log.Warnf("configured demand endpoints not in generated topology, using %d -> %d", demand.Source, demand.Target)
	}
	return g, []common.Demand{demand}, nil
}

func runSingle(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, algorithm string, p common.Params) {
	res, err := dispatcher.Solve(ctx, g, d, w, algorithm, p)
	if err != nil {
		log.Errorf("solving failed, algorithm:%s, demand:%d->%d, err:%v", algorithm, d.Source, d.Target, err)
		return
	}
	printResult(res, d)
}

func runComparison(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, algorithms []string, p common.Params) {
	reports, err := compare.Run(ctx, g, d, w, algorithms, p)
	if err != nil {
		log.Errorf("comparison run failed, demand:%d->%d, err:%v", d.Source, d.Target, err)
		return
	}
	for _, rep := range reports {
		if rep.Err != nil {
			log.Warnf("algorithm %s failed in %v, err:%v", rep.Algorithm, rep.Elapsed, rep.Err)
			continue
		}
		printResult(rep.Result, d)
		fmt.Printf("  elapsed=%v seed=%d cpu=%.1f%% mem=%.1f%%\n",
			rep.Elapsed, rep.Seed, rep.CPUPercent, rep.MemUsedPercent)
	}
}

func printResult(res *common.Result, d common.Demand) {
	fmt.Printf("[%s] %d->%d path=%s delay=%.3fms reliability=%.4f%% resource=%.3f\n",
		res.Algorithm, d.Source, d.Target, formatPath(res.Path),
		res.TotalDelay, res.FinalReliabilityPercent, res.ResourceCost)
}

func formatPath(p common.Path) string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " -> ")
}
