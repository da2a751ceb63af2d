package router

import (
	"edu-ai-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, aiHandler *handler.AIHandler) {
	ai := v1.Group("/ai")
	{
		// 出题与组卷
		ai.POST("/questions/generate", aiHandler.GenerateQuestions)
		ai.POST("/questions/paper", aiHandler.GenerateQuestionPaper)
		ai.GET("/question-bank", aiHandler.ListQuestionBank)

		// 学情
		ai.POST("/performance/analyze", aiHandler.AnalyzePerformance)
		ai.POST("/study-plans", aiHandler.CreateStudyPlan)
		ai.GET("/study-plans", aiHandler.ListStudyPlans)

		// 解题与讲解
		ai.POST("/math/solve", aiHandler.SolveMath)
		ai.POST("/concepts/explain", aiHandler.ExplainConcept)
		ai.POST("/tutor/ask", aiHandler.AskTutor)
	}
}
