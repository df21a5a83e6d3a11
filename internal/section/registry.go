package section

// Encoder turns the params of one kind into its profile.
type Encoder func(Params) (Profile, error)

// Decoder turns a profile of a known vertex count into params.
type Decoder func(Profile) Params

// Registry dispatches encoders by kind and decoders by vertex count.
// The two axes are independent: decoding never looks at a kind tag.
type Registry struct {
	encoders map[Kind]Encoder
	decoders map[int]Decoder
}

var defaultRegistry = NewRegistry()

// NewRegistry returns the registry of the built-in beam and column codecs.
func NewRegistry() *Registry {
	return &Registry{
		encoders: map[Kind]Encoder{
			Beam:   encodeBeam,
			Column: encodeColumn,
		},
		decoders: map[int]Decoder{
			beamVertexCount:   decodeBeam,
			columnVertexCount: decodeColumn,
		},
	}
}

// EncoderFor returns the encoder of k.
func (r *Registry) EncoderFor(k Kind) (Encoder, error) {
	enc, ok := r.encoders[k]
	if !ok {
		return nil, &UnsupportedComponentTypeError{Type: k.String()}
	}
	return enc, nil
}

// DecoderFor returns the decoder of profiles with n vertices.
func (r *Registry) DecoderFor(n int) (Decoder, error) {
	dec, ok := r.decoders[n]
	if !ok {
		return nil, &UnsupportedProfileStructureError{Count: n}
	}
	return dec, nil
}

// Encode builds the profile of p.
func (r *Registry) Encode(p Params) (Profile, error) {
	if p == nil {
		return nil, &MalformedInputError{Field: "params"}
	}
	enc, err := r.EncoderFor(p.Kind())
	if err != nil {
		return nil, err
	}
	return enc(p)
}

// Decode recovers params from pts at full precision.
func (r *Registry) Decode(pts Profile) (Params, error) {
	dec, err := r.DecoderFor(len(pts))
	if err != nil {
		return nil, err
	}
	return dec(pts), nil
}

// Encode builds the profile of p with the built-in codecs.
func Encode(p Params) (Profile, error) {
	return defaultRegistry.Encode(p)
}

// Decode recovers params from pts with the built-in codecs.
func Decode(pts Profile) (Params, error) {
	return defaultRegistry.Decode(pts)
}

// DecodeForDisplay decodes pts and rounds the result to DisplayPlaces.
func DecodeForDisplay(pts Profile) (Params, error) {
	p, err := Decode(pts)
	if err != nil {
		return nil, err
	}
	return p.Round(DisplayPlaces), nil
}
