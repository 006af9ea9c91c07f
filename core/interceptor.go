package core

import (
	"context"
)

// HookID identifies one of the fixed interceptor hook points.
type HookID int

const (
	HookReadBeforeExecution HookID = iota
	HookReadBeforeSerialization
	HookModifyBeforeSerialization
	HookReadAfterSerialization
	HookModifyBeforeRetryLoop
	HookReadBeforeAttempt
	HookModifyBeforeSigning
	HookReadBeforeSigning
	HookReadAfterSigning
	HookModifyBeforeTransmit
	HookReadBeforeTransmit
	HookReadAfterTransmit
	HookModifyBeforeDeserialization
	HookReadBeforeDeserialization
	HookReadAfterDeserialization
	HookModifyBeforeAttemptCompletion
	HookReadAfterAttempt
	HookModifyBeforeCompletion
	HookReadAfterExecution
)

var hookNames = map[HookID]string{
	HookReadBeforeExecution:           "read-before-execution",
	HookReadBeforeSerialization:       "read-before-serialization",
	HookModifyBeforeSerialization:     "modify-before-serialization",
	HookReadAfterSerialization:        "read-after-serialization",
	HookModifyBeforeRetryLoop:         "modify-before-retry-loop",
	HookReadBeforeAttempt:             "read-before-attempt",
	HookModifyBeforeSigning:           "modify-before-signing",
	HookReadBeforeSigning:             "read-before-signing",
	HookReadAfterSigning:              "read-after-signing",
	HookModifyBeforeTransmit:          "modify-before-transmit",
	HookReadBeforeTransmit:            "read-before-transmit",
	HookReadAfterTransmit:             "read-after-transmit",
	HookModifyBeforeDeserialization:   "modify-before-deserialization",
	HookReadBeforeDeserialization:     "read-before-deserialization",
	HookReadAfterDeserialization:      "read-after-deserialization",
	HookModifyBeforeAttemptCompletion: "modify-before-attempt-completion",
	HookReadAfterAttempt:              "read-after-attempt",
	HookModifyBeforeCompletion:        "modify-before-completion",
	HookReadAfterExecution:            "read-after-execution",
}

func (h HookID) String() string {
	if name, ok := hookNames[h]; ok {
		return name
	}
	return "unknown-hook"
}

// Interceptor exposes the fixed menu of lifecycle hooks. Implementations
// embed InterceptorBase and override only the hooks they care about. Each
// hook receives the invocation context, the merged runtime components, and
// the layered config store, and returns success or a descriptive failure.
type Interceptor interface {
	ReadBeforeExecution(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadBeforeSerialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeSerialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterSerialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeRetryLoop(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadBeforeAttempt(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeSigning(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadBeforeSigning(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterSigning(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeTransmit(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadBeforeTransmit(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterTransmit(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeDeserialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadBeforeDeserialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterDeserialization(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeAttemptCompletion(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterAttempt(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ModifyBeforeCompletion(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
	ReadAfterExecution(ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error
}

// InterceptorBase is a no-op implementation of every hook, meant to be
// embedded so interceptors only implement the hooks they need.
type InterceptorBase struct{}

func (InterceptorBase) ReadBeforeExecution(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadBeforeSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterSerialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeRetryLoop(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadBeforeAttempt(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadBeforeSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterSigning(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadBeforeTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterTransmit(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadBeforeDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterDeserialization(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeAttemptCompletion(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterAttempt(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ModifyBeforeCompletion(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

func (InterceptorBase) ReadAfterExecution(context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error {
	return nil
}

type hookFunc func(Interceptor, context.Context, *InterceptorContext, *RuntimeComponents, *ConfigBag) error

// hookCalls is the data table driving the single dispatch routine, so the
// per-hook control flow is written once rather than nineteen times.
var hookCalls = map[HookID]hookFunc{
	HookReadBeforeExecution: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeExecution(ctx, ictx, rc, bag)
	},
	HookReadBeforeSerialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeSerialization(ctx, ictx, rc, bag)
	},
	HookModifyBeforeSerialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeSerialization(ctx, ictx, rc, bag)
	},
	HookReadAfterSerialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterSerialization(ctx, ictx, rc, bag)
	},
	HookModifyBeforeRetryLoop: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeRetryLoop(ctx, ictx, rc, bag)
	},
	HookReadBeforeAttempt: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeAttempt(ctx, ictx, rc, bag)
	},
	HookModifyBeforeSigning: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeSigning(ctx, ictx, rc, bag)
	},
	HookReadBeforeSigning: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeSigning(ctx, ictx, rc, bag)
	},
	HookReadAfterSigning: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterSigning(ctx, ictx, rc, bag)
	},
	HookModifyBeforeTransmit: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeTransmit(ctx, ictx, rc, bag)
	},
	HookReadBeforeTransmit: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeTransmit(ctx, ictx, rc, bag)
	},
	HookReadAfterTransmit: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterTransmit(ctx, ictx, rc, bag)
	},
	HookModifyBeforeDeserialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeDeserialization(ctx, ictx, rc, bag)
	},
	HookReadBeforeDeserialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadBeforeDeserialization(ctx, ictx, rc, bag)
	},
	HookReadAfterDeserialization: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterDeserialization(ctx, ictx, rc, bag)
	},
	HookModifyBeforeAttemptCompletion: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeAttemptCompletion(ctx, ictx, rc, bag)
	},
	HookReadAfterAttempt: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterAttempt(ctx, ictx, rc, bag)
	},
	HookModifyBeforeCompletion: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ModifyBeforeCompletion(ctx, ictx, rc, bag)
	},
	HookReadAfterExecution: func(i Interceptor, ctx context.Context, ictx *InterceptorContext, rc *RuntimeComponents, bag *ConfigBag) error {
		return i.ReadAfterExecution(ctx, ictx, rc, bag)
	},
}

// dispatchHook runs every interceptor registered for one hook point in
// order. The first failure skips the remaining interceptors at that point
// and is returned wrapped with the hook identity; how the failure is then
// treated (halt vs continue) is decided by the caller.
func dispatchHook(
	ctx context.Context,
	hook HookID,
	interceptors []Interceptor,
	ictx *InterceptorContext,
	rc *RuntimeComponents,
	bag *ConfigBag,
) error {
	call := hookCalls[hook]
	for _, interceptor := range interceptors {
		if interceptor == nil {
			continue
		}
		if err := call(interceptor, ctx, ictx, rc, bag); err != nil {
			return orchestrateInterceptor(hook, err)
		}
	}
	return nil
}
