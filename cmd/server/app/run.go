package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"arcshare/api/grpcserver"
	"arcshare/domain/scenario"
	"arcshare/infra/ledger"
	"arcshare/service"
)

type runOptions struct {
	kind    string
	workers int
	clones  int
	value   int64
	remote  string
	timeout time.Duration
}

func newRunCommand(ctx context.Context, o *options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scenario and print its report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := scenario.ParseKind(ro.kind)
			if err != nil {
				return err
			}
			sc := scenario.Scenario{Kind: kind, Workers: ro.workers, Clones: ro.clones, Value: ro.value}

			ctx, cancel := context.WithTimeout(ctx, ro.timeout)
			defer cancel()

			var rep *structpb.Struct
			if ro.remote != "" {
				rep, err = runRemote(ctx, ro.remote, sc)
			} else {
				rep, err = o.runLocal(ctx, sc)
			}
			if err != nil {
				return err
			}
			out, err := protojson.MarshalOptions{Multiline: true}.Marshal(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !rep.GetFields()["passed"].GetBoolValue() {
				return errors.New("scenario reported ownership violations")
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&ro.kind, "kind", "sequential", "scenario kind: sequential, handoff or fanout")
	fs.IntVar(&ro.workers, "workers", 8, "fan-out goroutines")
	fs.IntVar(&ro.clones, "clones", 1000, "clones per fan-out goroutine")
	fs.Int64Var(&ro.value, "value", 42, "payload value")
	fs.StringVar(&ro.remote, "remote", "", "run on a server at this address instead of in-process")
	fs.DurationVar(&ro.timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}

func (o *options) runLocal(ctx context.Context, sc scenario.Scenario) (*structpb.Struct, error) {
	l, err := ledger.Open(o.cfg.LedgerDir)
	if err != nil {
		return nil, err
	}
	defer l.Close()

	svc := service.NewScenarioService(l, service.Limits{
		MaxWorkers: o.cfg.MaxWorkers,
		MaxClones:  o.cfg.MaxClones,
	}, o.log)
	rep, err := svc.Run(ctx, sc)
	if err != nil {
		return nil, err
	}
	return rep.ToStruct()
}

func runRemote(ctx context.Context, addr string, sc scenario.Scenario) (*structpb.Struct, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	defer conn.Close()

	req, err := sc.ToStruct()
	if err != nil {
		return nil, err
	}
	return grpcserver.NewClient(conn).RunScenario(ctx, req)
}
