// Package externals decides which packages the bundler must leave out
// because the Lambda runtime already provides them.
package externals

const (
	// ModernSDK matches every AWS SDK v3 package, shipped with nodejs18.x and later.
	ModernSDK = "@aws-sdk/*"
	// LegacySDK is the AWS SDK v2 package, shipped with runtimes before nodejs18.x.
	LegacySDK = "aws-sdk"
	// ModernSDKMinNode is the first Node major whose runtime carries the v3 SDK.
	ModernSDKMinNode = 18
)

// SDKPattern returns the exclusion for the SDK bundled with the given Node major.
//
// https://aws.amazon.com/blogs/compute/node-js-18-x-runtime-now-available-in-aws-lambda/
func SDKPattern(node int) string {
	if node >= ModernSDKMinNode {
		return ModernSDK
	}
	return LegacySDK
}

// Resolve merges the caller's externals with the runtime SDK exclusion.
// includeSDK opts out of the exclusion. The result keeps first-seen order
// and drops exact duplicates; caller is not modified.
func Resolve(node int, includeSDK bool, caller []string) []string {
	out := AddIfMissing(nil, caller...)
	if !includeSDK {
		out = AddIfMissing(out, SDKPattern(node))
	}
	return out
}

// AddIfMissing appends each value not already present in list. Equality is
// plain string comparison, "@aws-sdk/*" does not absorb "@aws-sdk/client-s3".
func AddIfMissing(list []string, values ...string) []string {
	out := make([]string, 0, len(list)+len(values))
	seen := make(map[string]bool, len(list)+len(values))
	for _, v := range append(append([]string{}, list...), values...) {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
