package qdebug

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

func newTestService() (*Service, *qheap.Heap, *qstrtab.Table) {
	heap := qheap.New()
	strtab := qstrtab.New(heap)
	global := qobject.New(heap, qobject.ClassObject, nil)
	thread := qcall.NewThread(heap, nil, global)

	objects := map[string]*qobject.Object{}
	lookup := func(id string) (*qobject.Object, bool) {
		o, ok := objects[id]
		return o, ok
	}
	threads := func() []*qcall.Thread { return []*qcall.Thread{thread} }

	svc := NewService(heap, strtab, threads, lookup)
	objects["global"] = global
	return svc, heap, strtab
}

func TestHeapStatsReturnsSnapshot(t *testing.T) {
	svc, _, _ := newTestService()
	resp, err := svc.HeapStats(context.Background(), connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		t.Fatalf("HeapStats errored: %v", err)
	}
	if _, ok := resp.Msg.Fields["allocated"]; !ok {
		t.Fatal("expected allocated field in response")
	}
}

func TestDumpCallStackReportsFrames(t *testing.T) {
	svc, _, _ := newTestService()
	threads := svc.threads()
	threads[0].Calls = append(threads[0].Calls, &qcall.Activation{PC: 3, IdxBottom: 1})

	resp, err := svc.DumpCallStack(context.Background(), connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		t.Fatalf("DumpCallStack errored: %v", err)
	}
	frames := resp.Msg.Fields["frames"].GetListValue().Values
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
}

func TestDumpObjectListsOwnProperties(t *testing.T) {
	svc, heap, strtab := newTestService()
	key := strtab.Intern([]byte("x"))
	global := qobject.New(heap, qobject.ClassObject, nil)
	global.Define(key, qval.Number(7), qobject.DefaultDataAttrs, false, qval.Undefined(), qval.Undefined())

	req := connect.NewRequest(&structpb.Struct{})
	lookup := func(id string) (*qobject.Object, bool) {
		if id == "obj" {
			return global, true
		}
		return nil, false
	}
	svc2 := NewService(heap, strtab, svc.threads, lookup)

	fields, err := structpb.NewStruct(map[string]any{"object_id": "obj"})
	if err != nil {
		t.Fatal(err)
	}
	req.Msg = fields

	resp, err := svc2.DumpObject(context.Background(), req)
	if err != nil {
		t.Fatalf("DumpObject errored: %v", err)
	}
	props := resp.Msg.Fields["properties"].GetStructValue().Fields
	if _, ok := props["x"]; !ok {
		t.Fatalf("expected property x in dump, got %+v", props)
	}
}

func TestDumpObjectUnknownIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	fields, _ := structpb.NewStruct(map[string]any{"object_id": "missing"})
	_, err := svc.DumpObject(context.Background(), connect.NewRequest(fields))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
}
