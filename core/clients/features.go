package clients

import (
	"fmt"
	"math/bits"
)

// Feature is a capability a backend may lack.
type Feature int

const (
	ServerSSL Feature = iota
	ServerHost
	ServerPort
	ServerSocketPath
	ServerUser
	ServerPassword
	ServerSchema
	ServerDomain
	ServerSSH
	ScriptCreateTable
	CancelQuery

	featureCount
)

var featureNames = [featureCount]string{
	ServerSSL:         "server:ssl",
	ServerHost:        "server:host",
	ServerPort:        "server:port",
	ServerSocketPath:  "server:socketPath",
	ServerUser:        "server:user",
	ServerPassword:    "server:password",
	ServerSchema:      "server:schema",
	ServerDomain:      "server:domain",
	ServerSSH:         "server:ssh",
	ScriptCreateTable: "scriptCreateTable",
	CancelQuery:       "cancelQuery",
}

func (f Feature) String() string {
	if f < 0 || f >= featureCount {
		return fmt.Sprintf("Feature(%d)", int(f))
	}
	return featureNames[f]
}

// ParseFeature maps a capability token such as "server:socketPath" to its Feature.
func ParseFeature(s string) (Feature, error) {
	for f, name := range featureNames {
		if name == s {
			return Feature(f), nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", s)
}

// AllFeatures lists every known Feature in declaration order.
func AllFeatures() []Feature {
	out := make([]Feature, featureCount)
	for i := range out {
		out[i] = Feature(i)
	}
	return out
}

// FeatureSet is a bit set of Features.
type FeatureSet uint32

func NewFeatureSet(features ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range features {
		if f < 0 || f >= featureCount {
			panic(fmt.Sprintf("clients: invalid feature %d", int(f)))
		}
		s |= 1 << uint(f)
	}
	return s
}

func (s FeatureSet) Has(f Feature) bool {
	if f < 0 || f >= featureCount {
		return false
	}
	return s&(1<<uint(f)) != 0
}

func (s FeatureSet) Len() int { return bits.OnesCount32(uint32(s)) }

// Features returns the members of s in declaration order.
func (s FeatureSet) Features() []Feature {
	out := make([]Feature, 0, s.Len())
	for f := Feature(0); f < featureCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
