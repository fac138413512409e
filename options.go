package rapport

import "github.com/google/uuid"

// Options configures a Socket.
type Options struct {
	Serializer        Serializer     // converts values to and from transport payloads
	NewPromise        func() Promise // nil means only callback-style completion is possible
	GenerateRequestID func() string  // must be unlikely to collide during a connection's life
	promiseSet        bool           // NewPromise was set explicitly, even if to nil
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns JSON serialization, Call promises and random UUID request IDs.
func DefaultOptions() *Options {
	return &Options{
		Serializer:        JSONSerializer{},
		NewPromise:        NewCall,
		GenerateRequestID: uuid.NewString,
	}
}

// WithSerializer sets the Serializer.
func WithSerializer(s Serializer) Option {
	return func(o *Options) { o.Serializer = s }
}

// WithEncoder replaces the encoding half of the Serializer.
func WithEncoder(encode func(v interface{}) ([]byte, error)) Option {
	return func(o *Options) {
		base := o.serializer()
		o.Serializer = funcSerializer{encode: encode, decode: base.Decode}
	}
}

// WithDecoder replaces the decoding half of the Serializer.
func WithDecoder(decode func(data []byte) (interface{}, error)) Option {
	return func(o *Options) {
		base := o.serializer()
		o.Serializer = funcSerializer{encode: base.Encode, decode: decode}
	}
}

// WithPromise sets the Promise factory used when no callback is given.
// Passing nil disables promise-style completion, making Request and Close
// without a callback fail with a ConfigurationError.
func WithPromise(newPromise func() Promise) Option {
	return func(o *Options) {
		o.NewPromise = newPromise
		o.promiseSet = true
	}
}

// WithRequestIDGenerator sets the request ID generator.
func WithRequestIDGenerator(f func() string) Option {
	return func(o *Options) { o.GenerateRequestID = f }
}

func (o *Options) serializer() Serializer {
	if o.Serializer == nil {
		return JSONSerializer{}
	}
	return o.Serializer
}

// newOptions applies opts and fills what they left unset from DefaultOptions.
func newOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	def := DefaultOptions()
	if o.Serializer == nil {
		o.Serializer = def.Serializer
	}
	if o.NewPromise == nil && !o.promiseSet {
		o.NewPromise = def.NewPromise
	}
	if o.GenerateRequestID == nil {
		o.GenerateRequestID = def.GenerateRequestID
	}
	return o
}
