package descriptor

// PropertyInfo describes one property slot of an inspected object.
type PropertyInfo struct {
	Key         string   `json:"key"`
	Kind        string   `json:"kind"`
	Depth       int      `json:"depth"`
	PrivateKeys []string `json:"private_keys,omitempty"`
	LayerIDs    []string `json:"layer_ids,omitempty"`
}

// Describe lists the property slots of obj sorted by key, flattening each
// chain into its private keys and layer IDs, head first.
func Describe(obj Inspectable) []PropertyInfo {
	if obj == nil {
		return nil
	}
	keys := obj.Keys()
	infos := make([]PropertyInfo, 0, len(keys))
	for _, key := range keys {
		d, ok := obj.OwnPropertyDescriptor(key)
		if !ok {
			continue
		}
		info := PropertyInfo{
			Key:   key,
			Kind:  Kind(d),
			Depth: Depth(d),
		}
		seen := map[*Layer]struct{}{}
		for cursor := present(d); cursor != nil; {
			layer, isLayer := cursor.(*Layer)
			if !isLayer {
				break
			}
			if _, dup := seen[layer]; dup {
				break
			}
			seen[layer] = struct{}{}
			info.PrivateKeys = append(info.PrivateKeys, layer.privateKey)
			info.LayerIDs = append(info.LayerIDs, layer.id)
			cursor = present(layer.previous)
		}
		infos = append(infos, info)
	}
	return infos
}
