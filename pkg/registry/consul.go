package registry

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	consul "github.com/hashicorp/consul/api"
)

type Registration struct {
	ID        string
	Name      string
	Address   string
	Port      int
	HealthURL string
	Interval  time.Duration
	Timeout   time.Duration
	Tags      []string
}

type agent interface {
	ServiceRegister(service *consul.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

// Registry registers services with the local consul agent.
type Registry struct {
	agent agent
}

func New(host string, port int, token string) (*Registry, error) {
	cfg := consul.DefaultConfig()
	cfg.Address = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.Token = token

	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Registry{agent: client.Agent()}, nil
}

func (r *Registry) Register(reg Registration) error {
	if reg.Name == "" {
		return errors.New("registry: service name is required")
	}
	if reg.ID == "" {
		reg.ID = reg.Name
	}

	svc := &consul.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}
	if reg.HealthURL != "" {
		interval, timeout := reg.Interval, reg.Timeout
		if interval <= 0 {
			interval = 10 * time.Second
		}
		if timeout <= 0 {
			timeout = time.Second
		}
		svc.Check = &consul.AgentServiceCheck{
			HTTP:                           reg.HealthURL,
			Interval:                       interval.String(),
			Timeout:                        timeout.String(),
			DeregisterCriticalServiceAfter: (10 * interval).String(),
		}
	}

	if err := r.agent.ServiceRegister(svc); err != nil {
		return fmt.Errorf("failed to register %s with consul: %w", reg.Name, err)
	}
	return nil
}

func (r *Registry) Deregister(id string) error {
	if err := r.agent.ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister %s from consul: %w", id, err)
	}
	return nil
}
