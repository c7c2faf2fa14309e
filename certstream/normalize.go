package certstream

import (
	"strings"
	"time"
)

// LeafInfo is the normalized view of a weakly typed leaf certificate map.
// Feature extraction consumes this instead of poking at the raw map, so the
// schema drift of the upstream feed is absorbed in exactly one place.
type LeafInfo struct {
	CN        string
	SANs      []string
	HasOCSP   bool
	HasCRL    bool
	NotBefore time.Time
	NotAfter  time.Time
}

// NormalizeLeaf builds a LeafInfo from the raw leaf_cert map of a work item.
// Missing or malformed fields degrade to zero values rather than erroring.
func NormalizeLeaf(leaf map[string]interface{}) LeafInfo {
	var info LeafInfo
	if leaf == nil {
		return info
	}

	if subject, ok := leaf["subject"].(map[string]interface{}); ok {
		if cn, ok := subject["CN"].(string); ok {
			info.CN = cn
		}
	}

	extensions, _ := leaf["extensions"].(map[string]interface{})

	info.SANs = subjectAltNames(leaf, extensions)

	aia := stringValues(extensions["authorityInfoAccess"])
	for _, entry := range aia {
		if strings.Contains(strings.ToLower(entry), "ocsp") {
			info.HasOCSP = true
			break
		}
	}
	if !info.HasOCSP && len(stringValues(leaf["ocsp_urls"])) > 0 {
		info.HasOCSP = true
	}

	if len(stringValues(extensions["crlDistributionPoints"])) > 0 {
		info.HasCRL = true
	}
	if !info.HasCRL && len(stringValues(leaf["crl_distribution_points"])) > 0 {
		info.HasCRL = true
	}

	info.NotBefore = parseCertTime(leaf["not_before"])
	info.NotAfter = parseCertTime(leaf["not_after"])

	return info
}

// subjectAltNames collects SAN DNS names from the subjectAltName extension,
// which arrives either as a comma separated string with "DNS:" prefixes or
// as a list, falling back to the all_domains field.
func subjectAltNames(leaf, extensions map[string]interface{}) []string {
	var sans []string
	if extensions != nil {
		for _, entry := range stringValues(extensions["subjectAltName"]) {
			for _, part := range strings.Split(entry, ",") {
				part = strings.TrimSpace(part)
				part = strings.TrimPrefix(part, "DNS:")
				if part != "" {
					sans = append(sans, part)
				}
			}
		}
	}
	if len(sans) == 0 {
		sans = append(sans, stringValues(leaf["all_domains"])...)
	}
	return sans
}

// stringValues flattens a value that may be a string, a list of strings, or
// absent into a slice of non-empty strings.
func stringValues(v interface{}) []string {
	switch value := v.(type) {
	case string:
		if value == "" {
			return nil
		}
		return []string{value}
	case []interface{}:
		var out []string
		for _, entry := range value {
			if s, ok := entry.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseCertTime accepts a UNIX epoch number or an ISO-8601 string. Malformed
// values yield the zero time.
func parseCertTime(v interface{}) time.Time {
	switch value := v.(type) {
	case float64:
		if value <= 0 {
			return time.Time{}
		}
		return time.Unix(int64(value), 0).UTC()
	case string:
		for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339} {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
