package watcher

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"

	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/watcher/shared"
)

// Status is what a watcher process reports once it is ready.
type Status struct {
	PID        registry.PID
	DatabaseID registry.DatabaseID
}

// Reporter reports the readiness of a watcher process.
type Reporter interface {
	// Status blocks until the watcher is ready or has failed to start.
	Status() (Status, error)
}

// ReporterRPCPlugin is the go-plugin's Plugin implementation.
type ReporterRPCPlugin struct {
	Reporter Reporter
}

// Server hosts ReporterServer.
func (p *ReporterRPCPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &ReporterServer{Reporter: p.Reporter}, nil
}

// Client provides ReporterClient client.
func (p *ReporterRPCPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ReporterClient{client: c}, nil
}

// ReporterServer is a net/rpc compatible structure for serving a Reporter.
type ReporterServer struct {
	Reporter Reporter
}

// Status server implementation.
func (r *ReporterServer) Status(_ interface{}, resp *StatusResponse) error {
	status, err := r.Reporter.Status()
	*resp = StatusResponse{Status: status, Error: goplugin.NewBasicError(err)}
	return nil
}

// ReporterClient is a RPC implementation of Reporter.
type ReporterClient struct {
	client *rpc.Client
}

// Status calls the watcher process.
func (r *ReporterClient) Status() (Status, error) {
	var resp StatusResponse
	if err := r.client.Call("Plugin.Status", new(interface{}), &resp); err != nil {
		return Status{}, err
	}
	if resp.Error != nil {
		return Status{}, resp.Error
	}
	return resp.Status, nil
}

// StatusResponse RPC response
type StatusResponse struct {
	Status Status
	Error  *goplugin.BasicError
}

// pluginMap is the map of plugins the coordinator can dispense.
var pluginMap = map[string]goplugin.Plugin{
	shared.PluginName: &ReporterRPCPlugin{},
}
