// Package qdebug exposes a read-only introspection service over the heap,
// call stacks, and individual objects. It is a debugging aid, not part of
// the engine's execution path: every procedure takes a snapshot and never
// mutates engine state.
package qdebug

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

const (
	procHeapStats     = "/quark.debug.v1.DebugService/HeapStats"
	procDumpCallStack = "/quark.debug.v1.DebugService/DumpCallStack"
	procDumpObject    = "/quark.debug.v1.DebugService/DumpObject"
)

// ObjectLookup resolves the opaque ids DumpObject accepts (the host decides
// how objects get ids — spec.md leaves this out of scope, so the service
// only needs a resolver function).
type ObjectLookup func(id string) (*qobject.Object, bool)

// ThreadLister returns the live threads a DumpCallStack request can name by
// index; index 0 is always the main thread.
type ThreadLister func() []*qcall.Thread

// Service implements the three read-only debug procedures. It holds no
// lock of its own: callers are expected to only invoke it while the
// engine's single running thread is parked between bytecode steps.
type Service struct {
	heap    *qheap.Heap
	strtab  *qstrtab.Table
	threads ThreadLister
	lookup  ObjectLookup
}

// NewService builds a debug service over the given heap, string table, and
// thread/object accessors.
func NewService(heap *qheap.Heap, strtab *qstrtab.Table, threads ThreadLister, lookup ObjectLookup) *Service {
	return &Service{heap: heap, strtab: strtab, threads: threads, lookup: lookup}
}

// HeapStats returns a snapshot of the heap's allocation/GC counters.
func (s *Service) HeapStats(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	st := s.heap.Stats()
	out, err := structpb.NewStruct(map[string]any{
		"allocated":         float64(st.Allocated),
		"gc_cycles":         float64(st.GCCycles),
		"freed":             float64(st.Freed),
		"finalized":         float64(st.Finalized),
		"refzero_freed":     float64(st.RefzeroFreed),
		"last_gc_emergency": st.LastGCEmergency,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// DumpCallStack returns the activation records of the thread named by the
// request's "thread_index" field (default 0), innermost frame last.
func (s *Service) DumpCallStack(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	idx := 0
	if v, ok := req.Msg.Fields["thread_index"]; ok {
		idx = int(v.GetNumberValue())
	}
	threads := s.threads()
	if idx < 0 || idx >= len(threads) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("no thread at index %d", idx))
	}
	thread := threads[idx]

	frames := make([]any, 0, len(thread.Calls))
	for _, act := range thread.Calls {
		frame := map[string]any{
			"pc":         float64(act.PC),
			"idx_bottom": float64(act.IdxBottom),
			"strict":     act.HasFlag(qcall.FlagStrict),
			"construct":  act.HasFlag(qcall.FlagConstruct),
			"tailcalled": act.HasFlag(qcall.FlagTailcalled),
		}
		if act.Func != nil {
			frame["func_class"] = act.Func.Class().String()
		}
		frames = append(frames, frame)
	}

	out, err := structpb.NewStruct(map[string]any{
		"thread_state": thread.State.String(),
		"frames":       frames,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// DumpObject returns a structural dump of the object named by the
// request's "object_id" field: its class, flags, and own properties.
func (s *Service) DumpObject(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	id := req.Msg.Fields["object_id"].GetStringValue()
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("object_id is required"))
	}
	obj, ok := s.lookup(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no object with id %q", id))
	}

	keys := obj.Enumerate(qobject.EnumOwnOnly | qobject.EnumIncludeNonenumerable | qobject.EnumSortArrayIndices)
	props := make(map[string]any, len(keys))
	for _, key := range keys {
		v, ok := obj.GetOwn(key)
		if !ok {
			continue
		}
		attrs, _ := obj.OwnAttr(key)
		props[string(key.Bytes())] = map[string]any{
			"value":         describeValue(v),
			"writable":      attrs&qobject.AttrWritable != 0,
			"enumerable":    attrs&qobject.AttrEnumerable != 0,
			"configurable":  attrs&qobject.AttrConfigurable != 0,
			"accessor":      attrs&qobject.AttrAccessor != 0,
		}
	}

	out, err := structpb.NewStruct(map[string]any{
		"class":      obj.Class().String(),
		"properties": props,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// describeValue renders a qval.Value as a JSON-ish value structpb can
// carry, for DumpObject's property listing.
func describeValue(v qval.Value) string {
	switch v.Kind() {
	case qval.KindUndefined:
		return "undefined"
	case qval.KindNull:
		return "null"
	case qval.KindBoolean:
		return fmt.Sprintf("%v", v.AsBool())
	case qval.KindNumber:
		return fmt.Sprintf("%v", v.AsNumber())
	case qval.KindString:
		if str, ok := v.AsRef().(*qstrtab.String); ok {
			return string(str.Bytes())
		}
		return "<string>"
	case qval.KindObject:
		return "<object>"
	default:
		return "<value>"
	}
}

// NewHandler mounts the three debug procedures on a plain ServeMux, ready
// to be served over cleartext HTTP/2 via h2c — debug connections have no
// TLS termination point of their own in an embedded host.
func NewHandler(s *Service) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(procHeapStats, connect.NewUnaryHandler(procHeapStats, s.HeapStats))
	mux.Handle(procDumpCallStack, connect.NewUnaryHandler(procDumpCallStack, s.DumpCallStack))
	mux.Handle(procDumpObject, connect.NewUnaryHandler(procDumpObject, s.DumpObject))
	return h2c.NewHandler(mux, &http2.Server{})
}

// NewServer wraps NewHandler's mux in an *http.Server bound to addr,
// ready for ListenAndServe.
func NewServer(addr string, s *Service) *http.Server {
	return &http.Server{Addr: addr, Handler: NewHandler(s)}
}
