package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sevlyar/go-daemon"

	"github.com/Qthai16/go-murmur3/service"
	"github.com/Qthai16/go-murmur3/utils"
)

// todo: rotation log file

type CmdlineOpts struct {
	EnvFile string
	Addr    string
	LogPath string
	Seed    string
	Algo    string
	Daemon  bool
}

func flagInit(fs *flag.FlagSet, opts *CmdlineOpts) {
	fs.StringVar(&opts.EnvFile, "env", ".env", "env file loaded before reading MURMUR3D_* variables")
	fs.StringVar(&opts.Addr, "addr", "", "server listen addr")
	fs.StringVar(&opts.LogPath, "log", "", "log file path")
	fs.StringVar(&opts.Seed, "seed", "", `hash seed, empty or "random" for a random one`)
	fs.StringVar(&opts.Algo, "algo", "", "hash algorithm")
	fs.BoolVar(&opts.Daemon, "daemon", false, "run as daemon")
}

// loadConfig reads env config, then applies the flags that were set.
func loadConfig(fs *flag.FlagSet, opts *CmdlineOpts) (*service.Config, error) {
	conf, err := service.LoadConfig(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			conf.Addr = opts.Addr
		case "log":
			conf.LogPath = opts.LogPath
		case "seed":
			conf.Seed = opts.Seed
		case "algo":
			conf.Algorithm = opts.Algo
		case "daemon":
			conf.Daemon = opts.Daemon
		}
	})
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func pidFile() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("murmur3d.%d.pid", os.Getpid()))
}

func run(ctx context.Context, conf *service.Config) error {
	utils.SetColorPrint(conf.ColorLog && conf.LogPath == "")
	if len(conf.LogPath) > 0 {
		f, err := os.OpenFile(conf.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		log.SetOutput(f)
		utils.SetLogOutput(f)
		// panics are written to stderr
		if err = utils.RedirectFile(os.Stderr, f); err != nil {
			utils.LogWarn("failed to redirect stderr: %v", err)
		}
	}
	defer utils.SyncLog()

	srv, err := service.NewServer(conf)
	if err != nil {
		return err
	}
	utils.Logger().Infow("starting server", "addr", conf.Addr, "algorithm", conf.Algorithm)
	if err = srv.ListenAndServe(ctx); err != nil {
		return err
	}
	utils.LogInfo("server exit")
	return nil
}

func realMain() int {
	opts := &CmdlineOpts{}
	flagInit(flag.CommandLine, opts)
	flag.Parse()
	conf, err := loadConfig(flag.CommandLine, opts)
	if err != nil {
		utils.LogErro("invalid config: %v", err)
		return 2
	}
	if conf.Daemon {
		utils.LogInfo("running process as daemon")
		cntxt := &daemon.Context{
			PidFileName: pidFile(),
			PidFilePerm: 0644,
		}
		d, err := cntxt.Reborn()
		if err != nil {
			utils.LogErro("failed to run as daemon: %v", err)
			return 1
		}
		if d != nil { // parent process
			return 0
		}
		defer cntxt.Release()
	}
	ctx, cancel := utils.TerminateContext(context.Background())
	defer cancel()
	if err = run(ctx, conf); err != nil {
		utils.LogErro("%v", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(realMain())
}
