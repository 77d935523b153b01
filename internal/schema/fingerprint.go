package schema

import (
	"strconv"

	"github.com/spaolacci/murmur3"
)

// Fingerprint returns a stable hash of the model's flat key map. Two builds of
// the same definition have the same fingerprint.
func (m *Model) Fingerprint() uint64 {
	h := murmur3.New64()
	for _, key := range m.order {
		n := m.nodes[key]
		fields := []string{
			key,
			n.ElementPath,
			n.TypeTag,
			n.ElementType.String(),
			string(n.ElementSet),
			strconv.FormatBool(n.IsNotNullable),
			strconv.FormatBool(n.IsSessionVariable),
			strconv.FormatBool(n.NotUnitOfRetention),
		}
		fields = append(fields, n.ListChildElementKeys...)
		for _, f := range fields {
			h.Write([]byte(f))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
