// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "mycotool")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/mycotool.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("mycobank.accesstoken", "")
	viper.SetDefault("mycobank.baseurl", "https://webservices.bio-aware.com/cbsdatabase_new/mycobank/taxonnames")
	viper.SetDefault("mycobank.detailsurl", "https://www.mycobank.org/page/Name%20details%20page/field/Mycobank%20%23/")
	viper.SetDefault("mycobank.timeout", 30)

	viper.SetDefault("resolve.exclude", "")
	viper.SetDefault("resolve.batchsize", 20)
	viper.SetDefault("resolve.output", "mycobank_results.tsv")
	viper.SetDefault("resolve.excludedoutput", "excluded_species.tsv")
	viper.SetDefault("resolve.verbose", false)

	viper.SetDefault("entrez.email", "aldendirks@gmail.com")
	viper.SetDefault("entrez.apikey", "")
	viper.SetDefault("entrez.baseurl", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	viper.SetDefault("entrez.batchsize", 20)
	viper.SetDefault("entrez.timeout", 60)

	viper.SetDefault("inaturalist.baseurl", "https://api.inaturalist.org/v1")
	viper.SetDefault("inaturalist.perpage", 200)
	viper.SetDefault("inaturalist.delay", 500)
	viper.SetDefault("inaturalist.timeout", 45)
}
