//go:build sd && cgo && !stub

package sdruntime

/*
#cgo LDFLAGS: -lstable-diffusion

#include <stdlib.h>
#include <stable-diffusion.h>
*/
import "C"

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"
)

// NativeLibraryLinked reports whether stable-diffusion.cpp is linked in.
const NativeLibraryLinked = true

var sdContextCounter uint64

// contexts maps SDContext.id to the native handle.
var contexts sync.Map // map[uint64]*C.sd_ctx_t

func loadModelImpl(modelPath string) (*SDContext, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, modelPath, err)
	}

	cModelPath := C.CString(modelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	var params C.sd_ctx_params_t
	C.sd_ctx_params_init(&params)
	params.model_path = cModelPath
	params.n_threads = C.get_num_physical_cores()

	cCtx := C.new_sd_ctx(&params)
	if cCtx == nil {
		return nil, fmt.Errorf("%w: new_sd_ctx returned null for %s", ErrModelLoadFailed, modelPath)
	}

	id := atomic.AddUint64(&sdContextCounter, 1)
	contexts.Store(id, cCtx)

	return &SDContext{id: id, modelPath: modelPath, valid: true}, nil
}

func generateImageImpl(ctx *SDContext, params GenerateParams) (*BackendImage, error) {
	if !ctx.IsValid() {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrGenerationFailed)
	}

	v, ok := contexts.Load(ctx.id)
	if !ok {
		return nil, fmt.Errorf("%w: no native context for id %d", ErrGenerationFailed, ctx.id)
	}
	cCtx := v.(*C.sd_ctx_t)

	cPrompt := C.CString(params.Prompt)
	defer C.free(unsafe.Pointer(cPrompt))
	cNegPrompt := C.CString(params.NegativePrompt)
	defer C.free(unsafe.Pointer(cNegPrompt))

	var gen C.sd_img_gen_params_t
	C.sd_img_gen_params_init(&gen)
	gen.prompt = cPrompt
	gen.negative_prompt = cNegPrompt
	gen.width = C.int(params.Width)
	gen.height = C.int(params.Height)
	gen.seed = C.int64_t(params.Seed)
	gen.batch_count = 1
	gen.sample_params.sample_steps = C.int(params.Steps)
	gen.sample_params.guidance.txt_cfg = C.float(params.CFGScale)

	// generate_image returns batch_count images, malloc'd along with their pixels
	img := C.generate_image(cCtx, &gen)
	if img == nil {
		return nil, fmt.Errorf("%w: generate_image returned null", ErrGenerationFailed)
	}
	defer C.free(unsafe.Pointer(img))
	if img.data == nil {
		return nil, fmt.Errorf("%w: generate_image returned no pixels", ErrGenerationFailed)
	}
	defer C.free(unsafe.Pointer(img.data))

	w, h, channels := int(img.width), int(img.height), int(img.channel)
	pixels := C.GoBytes(unsafe.Pointer(img.data), C.int(w*h*channels))

	rgba, err := ToRGBA(pixels, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	pngData, err := EncodeToPNG(rgba, w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &BackendImage{Data: pngData, Seed: params.Seed}, nil
}

func freeContextImpl(ctx *SDContext) {
	if ctx == nil {
		return
	}
	if v, ok := contexts.LoadAndDelete(ctx.id); ok {
		C.free_sd_ctx(v.(*C.sd_ctx_t))
	}
	ctx.valid = false
}

func getBackendInfoImpl() string {
	if info := C.sd_get_system_info(); info != nil {
		return "stable-diffusion.cpp: " + C.GoString(info)
	}
	return "stable-diffusion.cpp"
}
