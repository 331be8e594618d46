package main

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/devlink-io/devlink/internal/config"
	"github.com/devlink-io/devlink/internal/logging"
	"github.com/devlink-io/devlink/internal/progress"
	"github.com/devlink-io/devlink/internal/session"
	"github.com/devlink-io/devlink/internal/storage"
	"github.com/devlink-io/devlink/internal/transport"
)

const version = "v0.1.0"

func main() {
	cfg, args := config.Parse()
	log := logging.New("devlink", cfg.LogLevel)

	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmdName := args[0]
	switch cmdName {
	case "help", "--help", "-h":
		printUsage()
		return
	case "version", "--version", "-v":
		fmt.Println("devlink " + version)
		return
	}

	if cfg.Port == "" {
		fmt.Fprintln(os.Stderr, "no device: set -port or DEVLINK_PORT")
		os.Exit(2)
	}

	if err := run(cfg, log, cmdName, args[1:]); err != nil {
		log.Error("command failed", "cmd", cmdName, "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, cmdName string, args []string) error {
	stream, err := openStream(cfg)
	if err != nil {
		return err
	}

	s, err := session.Open(stream, cfg.Timeout, log)
	if err != nil {
		stream.Close()
		return err
	}
	defer s.Close()

	c := storage.New(s, storage.Options{
		ChunkSize:         cfg.ChunkSize,
		PrefetchStat:      cfg.StatPrefetch,
		KeepAliveInterval: cfg.KeepAlive,
	}, log)

	switch cmdName {
	case "ping":
		return cmdPing(s)
	case "ls":
		return cmdList(c, args)
	case "get":
		return cmdGet(c, args)
	case "put":
		return cmdPut(c, args)
	case "cat":
		return cmdCat(c, args)
	case "rm":
		return cmdRemove(c, args)
	case "mkdir":
		return cmdMkdir(c, args)
	case "stat":
		return cmdStat(c, args)
	case "md5":
		return cmdMd5(c, args)
	case "mv":
		return cmdRename(c, args)
	case "untar":
		return cmdUntar(c, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmdName)
	}
}

// openStream connects to the device. A ws:// or wss:// port goes through a
// serial bridge; anything else is a local port name.
func openStream(cfg config.Config) (transport.Stream, error) {
	if strings.HasPrefix(cfg.Port, "ws://") || strings.HasPrefix(cfg.Port, "wss://") {
		return transport.DialWS(cfg.Port)
	}
	return transport.OpenSerial(cfg.Port, cfg.Baud)
}

func cmdPing(s *session.Session) error {
	data, err := s.Ping([]byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		return err
	}
	fmt.Printf("pong (%d bytes echoed)\n", len(data))
	return nil
}

func cmdList(c *storage.Client, args []string) error {
	if len(args) != 1 {
		return usageError("ls <device-path>")
	}
	entries, err := c.ReadDir(args[0], false)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Dir {
			fmt.Printf("%10s  %s/\n", "", e.Name)
		} else {
			fmt.Printf("%10d  %s\n", e.Size, e.Name)
		}
	}
	return nil
}

func cmdGet(c *storage.Client, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("get <device-path> [local-path]")
	}
	src := args[0]
	dst := path.Base(src)
	if len(args) == 2 {
		dst = args[1]
	}

	events := make(chan progress.Event, 32)
	var data []byte
	var rerr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		data, rerr = c.ReadFile(src, events)
	}()
	progress.Display(os.Stdout, "get "+src, events)
	<-done
	if rerr != nil {
		return rerr
	}
	return os.WriteFile(dst, data, 0o644)
}

func cmdPut(c *storage.Client, args []string) error {
	if len(args) != 2 {
		return usageError("put <local-path> <device-path>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	events := make(chan progress.Event, 32)
	var werr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		werr = c.WriteFile(args[1], data, events)
	}()
	progress.Display(os.Stdout, "put "+args[1], events)
	<-done
	return werr
}

func cmdCat(c *storage.Client, args []string) error {
	if len(args) != 1 {
		return usageError("cat <device-path>")
	}
	text, err := c.ReadString(args[0])
	if err != nil {
		return err
	}
	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
	return nil
}

func cmdRemove(c *storage.Client, args []string) error {
	recursive := false
	if len(args) > 0 && args[0] == "-r" {
		recursive = true
		args = args[1:]
	}
	if len(args) != 1 {
		return usageError("rm [-r] <device-path>")
	}
	return c.Remove(args[0], recursive)
}

func cmdMkdir(c *storage.Client, args []string) error {
	if len(args) != 1 {
		return usageError("mkdir <device-path>")
	}
	return c.Mkdir(args[0])
}

func cmdStat(c *storage.Client, args []string) error {
	if len(args) != 1 {
		return usageError("stat <device-path>")
	}
	size, err := c.Stat(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d bytes\n", args[0], size)
	return nil
}

func cmdMd5(c *storage.Client, args []string) error {
	if len(args) != 1 {
		return usageError("md5 <device-path>")
	}
	sum, err := c.Md5(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", sum, args[0])
	return nil
}

func cmdRename(c *storage.Client, args []string) error {
	if len(args) != 2 {
		return usageError("mv <old-path> <new-path>")
	}
	return c.Rename(args[0], args[1])
}

func cmdUntar(c *storage.Client, args []string) error {
	if len(args) != 2 {
		return usageError("untar <device-tar-path> <device-out-path>")
	}
	return c.ExtractTar(args[0], args[1])
}

func usageError(usage string) error {
	return fmt.Errorf("usage: devlink %s", usage)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: devlink [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  ping                         round-trip a probe through the device")
	fmt.Fprintln(os.Stderr, "  ls <path>                    list a device directory")
	fmt.Fprintln(os.Stderr, "  get <path> [local]           download a file")
	fmt.Fprintln(os.Stderr, "  put <local> <path>           upload a file")
	fmt.Fprintln(os.Stderr, "  cat <path>                   print a text file")
	fmt.Fprintln(os.Stderr, "  rm [-r] <path>               delete a file or directory")
	fmt.Fprintln(os.Stderr, "  mkdir <path>                 create a directory")
	fmt.Fprintln(os.Stderr, "  stat <path>                  show file size")
	fmt.Fprintln(os.Stderr, "  md5 <path>                   hash a file on the device")
	fmt.Fprintln(os.Stderr, "  mv <old> <new>               rename a file or directory")
	fmt.Fprintln(os.Stderr, "  untar <tar> <out>            unpack an archive on the device")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  -port, -baud, -timeout, -chunk-size, -stat-prefetch, -keep-alive, -log-level")
	fmt.Fprintln(os.Stderr, "quick examples:")
	fmt.Fprintln(os.Stderr, "  devlink -port /dev/ttyACM0 ls /ext")
	fmt.Fprintln(os.Stderr, "  devlink -port ws://bridge.local:8765/uart get /ext/dump.bin")
}
