package constants_test

import (
	"fmt"
	"path"

	"github.com/agentstation/modsync/pkg/constants"
)

// Example shows how the profile layout constants compose into paths
func Example() {
	fmt.Println(path.Join("profile", constants.RuntimeDir, constants.PluginsDir))
	fmt.Printf("dirs %o files %o\n", constants.DirPermissions, constants.FilePermissions)
	// Output:
	// profile/BepInEx/plugins
	// dirs 755 files 644
}

// Example_indexURL demonstrates building the chunk index location
func Example_indexURL() {
	fmt.Println(constants.DefaultAPIBaseURL + fmt.Sprintf(constants.PackageListingIndexPath, "lethal-company"))
	// Output:
	// https://thunderstore.io/c/lethal-company/api/v1/package-listing-index/
}
