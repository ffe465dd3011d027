package cmd

import (
	"log"
	"net"
	"strconv"

	"github.com/urfave/cli"
	"winnow/pkg/config"
	"winnow/pkg/logflags"
	"winnow/pkg/proc"
	"winnow/pkg/scan"
	"winnow/pkg/terminal"
	"winnow/service"
	"winnow/service/http"
	"winnow/utils"
)

type ExecType int

const (
	Attach ExecType = iota
	Conn
	Regions
	Dump
	Set
)

const (
	defaultAddr = "127.0.0.1:0"
)

type executor struct {
	et      ExecType
	pid     int
	ctx     *cli.Context
	session *scan.Session
}

func newExecutor(et ExecType, pid int, ctx *cli.Context) (*executor, error) {
	e := &executor{
		et:  et,
		pid: pid,
		ctx: ctx,
	}

	if pid > 0 {
		session, err := scan.NewSession(pid, logflags.ScanLogger())
		if err != nil {
			return nil, err
		}
		e.session = session
	}

	return e, nil
}

func (e *executor) run() error {
	switch e.et {
	case Attach:
		return e.attach()
	case Conn:
		args := e.ctx.Args()
		return e.connect(args.First())
	case Regions:
		return e.regions()
	case Dump:
		return e.dump()
	case Set:
		return e.set()
	}

	return nil
}

func exec(et ExecType, pid int, ctx *cli.Context) error {
	ex, err := newExecutor(et, pid, ctx)
	if err != nil {
		return err
	}
	return ex.run()
}

func (e *executor) attach() error {
	var server service.Server
	ctx := e.ctx

	listener, err := net.Listen("tcp", defaultAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	srv := ctx.String("srv")
	switch srv {
	case "http":
		server = http.NewServer(ctx, listener, e.session)
	default:
		server = http.NewServer(ctx, listener, e.session)
	}

	defer server.Stop()
	if err := server.Run(); err != nil {
		return err
	}

	return e.connect(listener.Addr().String())
}

func (e *executor) connect(addr string) (err error) {
	var client service.Client
	srv := e.ctx.String("srv")
	switch srv {
	case "http":
		fallthrough
	default:
		client, err = http.NewClient(addr)
		if err != nil {
			return
		}
	}

	term := terminal.New(client, config.Load())
	return term.Run()
}

func (e *executor) regions() error {
	if pattern := e.ctx.String("filter"); pattern != "" {
		kind, err := proc.ParseFilterKind(e.ctx.String("kind"))
		if err != nil {
			return err
		}
		if _, err := e.session.Filter(kind, pattern, e.ctx.Bool("invert")); err != nil {
			return err
		}
	}

	w, color := utils.Stdout()
	utils.PrintRegions(w, color, e.session.Regions())
	return nil
}

func (e *executor) dump() error {
	args := e.ctx.Args()

	addr, err := strconv.ParseUint(args.Get(1), 0, 64)
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(args.Get(2))
	if err != nil {
		return err
	}

	data, err := e.session.Peek(addr, length)
	if err != nil {
		return err
	}

	w, _ := utils.Stdout()
	utils.Hexdump(w, addr, data)
	return nil
}

func (e *executor) set() error {
	args := e.ctx.Args()

	addr, err := strconv.ParseUint(args.Get(1), 0, 64)
	if err != nil {
		return err
	}

	return e.session.Poke(addr, args.Get(2))
}
