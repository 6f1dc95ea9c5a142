package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/kardianos/service"
)

const (
	serviceName        = "sdweb"
	serviceDisplayName = "SD Web UI"
	serviceDescription = "Browser front end for a text-to-image diffusion pipeline"

	// serviceStopTimeout bounds Stop; the service manager kills us after that.
	serviceStopTimeout = 45 * time.Second
)

// program implements service.Interface around serve.
type program struct {
	globals *Globals
	opts    serveOptions
	logger  service.Logger // nil outside a service.Service
	exit    func(int)

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start is called by the service manager. It must not block.
func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.err = serve(ctx, p.globals, p.opts)
		if p.err != nil && ctx.Err() == nil {
			p.fail(p.err)
		}
	}()
	return nil
}

// fail reports an error that ended serve without a Stop and exits with its
// code so the service manager sees the failure and can restart us. Stop is
// not called here: it waits on done, which this goroutine closes.
func (p *program) fail(err error) {
	if p.logger != nil {
		_ = p.logger.Errorf("%s stopped: %v", serviceName, err)
	}
	exit := p.exit
	if exit == nil {
		exit = os.Exit
	}
	exit(exitCode(err))
}

// Stop cancels serve and waits for the graceful shutdown to finish.
func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	select {
	case <-p.done:
		return p.err
	case <-time.After(serviceStopTimeout):
		return errors.New("timeout waiting for service to stop")
	}
}

// serviceConfig describes the installed service. The service runs
// "sdweb service run" from the directory it was installed from, so the
// .env file and relative output paths resolve the same way.
func serviceConfig(g *Globals) *service.Config {
	args := []string{"service", "run"}
	if g != nil && g.Config != "" {
		args = append([]string{"--config", g.Config}, args...)
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}

	return &service.Config{
		Name:             serviceName,
		DisplayName:      serviceDisplayName,
		Description:      serviceDescription,
		Arguments:        args,
		WorkingDirectory: wd,
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
}

func newService(g *Globals) (service.Service, *program, error) {
	prg := &program{globals: g, exit: os.Exit}
	s, err := service.New(prg, serviceConfig(g))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	if logger, err := s.Logger(nil); err == nil {
		prg.logger = logger
	}
	return s, prg, nil
}

// ServiceCmd groups the service management subcommands.
type ServiceCmd struct {
	Install   ServiceActionCmd `cmd:"" help:"Install sdweb as a system service."`
	Uninstall ServiceActionCmd `cmd:"" help:"Remove the system service."`
	Start     ServiceActionCmd `cmd:"" help:"Start the installed service."`
	Stop      ServiceActionCmd `cmd:"" help:"Stop the running service."`
	Restart   ServiceActionCmd `cmd:"" help:"Restart the service."`
	Status    ServiceStatusCmd `cmd:"" help:"Show the service status."`
	Run       ServiceRunCmd    `cmd:"" help:"Run under the service manager (used by the installed service)."`
}

// ServiceActionCmd runs one of the service.ControlAction verbs, taken from
// the command name.
type ServiceActionCmd struct{}

func (c *ServiceActionCmd) Run(kctx *kong.Context, g *Globals) error {
	s, _, err := newService(g)
	if err != nil {
		return err
	}
	action := kctx.Selected().Name
	if err := service.Control(s, action); err != nil {
		return fmt.Errorf("failed to %s service: %w", action, err)
	}
	fmt.Fprintf(os.Stdout, "Service %s: ok\n", action)
	return nil
}

// ServiceStatusCmd prints the service status.
type ServiceStatusCmd struct{}

func (c *ServiceStatusCmd) Run(g *Globals) error {
	s, _, err := newService(g)
	if err != nil {
		return err
	}
	return printServiceStatus(s, os.Stdout)
}

func printServiceStatus(s service.Service, out io.Writer) error {
	status, err := s.Status()
	if err != nil && !errors.Is(err, service.ErrNotInstalled) {
		return fmt.Errorf("failed to query service status: %w", err)
	}
	fmt.Fprintf(out, "Service %s: %s\n", serviceName, statusName(status, err))
	return nil
}

func statusName(status service.Status, err error) string {
	if errors.Is(err, service.ErrNotInstalled) {
		return "not installed"
	}
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ServiceRunCmd runs the server under the service manager.
type ServiceRunCmd struct{}

func (c *ServiceRunCmd) Run(g *Globals) error {
	s, prg, err := newService(g)
	if err != nil {
		return err
	}
	if err := s.Run(); err != nil {
		return fmt.Errorf("service run failed: %w", err)
	}
	return prg.err
}
